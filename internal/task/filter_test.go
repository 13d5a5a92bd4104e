package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskdeck/internal/model"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "t1", Title: "Buy groceries", Description: "milk and eggs", Priority: model.PriorityHigh, Tags: []string{"errands"}, DueDate: strPtr("2026-03-01")},
		{ID: "t2", Title: "Write report", Description: "quarterly numbers", Priority: model.PriorityMedium, Tags: []string{"work"}, DueDate: strPtr("2026-03-10"), Completed: true},
		{ID: "t3", Title: "Call plumber", Priority: model.PriorityLow, Tags: []string{"home", "errands"}},
		{ID: "t4", Title: "Review budget", Priority: model.PriorityHigh, Tags: []string{"work", "finance"}, DueDate: strPtr("2026-03-20")},
	}
}

func filteredIDs(tasks []model.Task) []model.TaskID {
	out := make([]model.TaskID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_Status(t *testing.T) {
	tasks := sampleTasks()

	all := Filter(tasks, StatusAll, "", AdvancedFilters{})
	assert.Len(t, all, 4)

	active := Filter(tasks, StatusActive, "", AdvancedFilters{})
	assert.Equal(t, []model.TaskID{"t1", "t3", "t4"}, filteredIDs(active))

	done := Filter(tasks, StatusCompleted, "", AdvancedFilters{})
	assert.Equal(t, []model.TaskID{"t2"}, filteredIDs(done))
}

func TestFilter_Query(t *testing.T) {
	tasks := sampleTasks()

	tests := []struct {
		name  string
		query string
		want  []model.TaskID
	}{
		{"title match case-insensitive", "GROCER", []model.TaskID{"t1"}},
		{"description match", "quarterly", []model.TaskID{"t2"}},
		{"tag substring match", "financ", []model.TaskID{"t4"}},
		{"no match", "zebra", []model.TaskID{}},
		{"blank query matches all", "   ", []model.TaskID{"t1", "t2", "t3", "t4"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(tasks, StatusAll, tc.query, AdvancedFilters{})
			assert.Equal(t, tc.want, filteredIDs(got))
		})
	}
}

func TestFilter_TagsAreOrWithinCategory(t *testing.T) {
	tasks := sampleTasks()

	got := Filter(tasks, StatusAll, "", AdvancedFilters{Tags: []string{"home", "finance"}})
	assert.Equal(t, []model.TaskID{"t3", "t4"}, filteredIDs(got))
}

func TestFilter_UntaggedTaskNeverMatchesTagFilter(t *testing.T) {
	tasks := []model.Task{{ID: "t1", Title: "bare"}}
	got := Filter(tasks, StatusAll, "", AdvancedFilters{Tags: []string{"work"}})
	assert.Empty(t, got)
}

func TestFilter_CategoriesCombineWithAnd(t *testing.T) {
	tasks := sampleTasks()

	// work AND high: only t4.
	got := Filter(tasks, StatusAll, "", AdvancedFilters{
		Tags:       []string{"work"},
		Priorities: []model.Priority{model.PriorityHigh},
	})
	assert.Equal(t, []model.TaskID{"t4"}, filteredIDs(got))

	// Adding a non-matching query drops it.
	got = Filter(tasks, StatusAll, "plumber", AdvancedFilters{
		Tags:       []string{"work"},
		Priorities: []model.Priority{model.PriorityHigh},
	})
	assert.Empty(t, got)
}

func TestFilter_DateRange(t *testing.T) {
	tasks := sampleTasks()

	t.Run("both bounds set, inclusive", func(t *testing.T) {
		got := Filter(tasks, StatusAll, "", AdvancedFilters{DateFrom: "2026-03-01", DateTo: "2026-03-10"})
		// t3 has no due date and passes the date predicate regardless.
		assert.Equal(t, []model.TaskID{"t1", "t2", "t3"}, filteredIDs(got))
	})

	t.Run("single bound is ignored", func(t *testing.T) {
		got := Filter(tasks, StatusAll, "", AdvancedFilters{DateFrom: "2026-03-15"})
		assert.Len(t, got, 4)
	})

	t.Run("undated task always passes", func(t *testing.T) {
		got := Filter(tasks, StatusAll, "", AdvancedFilters{DateFrom: "2030-01-01", DateTo: "2030-12-31"})
		assert.Equal(t, []model.TaskID{"t3"}, filteredIDs(got))
	})
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	tasks := sampleTasks()
	before := make([]model.Task, len(tasks))
	copy(before, tasks)

	got := Filter(tasks, StatusActive, "", AdvancedFilters{})
	assert.Equal(t, []model.TaskID{"t1", "t3", "t4"}, filteredIDs(got))
	assert.Equal(t, before, tasks)
}

func TestAdvancedFilters_Empty(t *testing.T) {
	assert.True(t, AdvancedFilters{}.Empty())
	assert.False(t, AdvancedFilters{Tags: []string{"x"}}.Empty())
	assert.False(t, AdvancedFilters{DateFrom: "2026-01-01"}.Empty())
}
