package main

import (
	"log"
	"net/http"

	"taskdeck/internal/config"
	"taskdeck/internal/serverapp"
)

func main() {
	cfg, err := config.LoadOrDefault("taskdeck.yml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config:  cfg,
		DataDir: cfg.Server.DataDir,
		Logger:  log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}
