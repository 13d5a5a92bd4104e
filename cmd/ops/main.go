package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskdeck/internal/ops"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backup":
		if err := cmdBackup(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "backup failed:", err)
			os.Exit(1)
		}
	case "restore":
		if err := cmdRestore(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "restore failed:", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(2)
	}
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		*out = filepath.Join("backups", ops.DefaultArchiveName(time.Now().UTC()))
	}

	if err := ops.BackupDataDir(*dataDir, *out); err != nil {
		return err
	}
	fmt.Println(*out)
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	target := fs.String("target-dir", "data-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	return ops.RestoreDataDir(*archive, *target)
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  taskdeck-ops backup  --data-dir data --out backups/backup.tar.gz")
	fmt.Println("  taskdeck-ops restore --archive backups/backup.tar.gz --target-dir data-restored")
}
