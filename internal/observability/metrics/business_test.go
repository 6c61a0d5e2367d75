package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordPageFetch(t *testing.T) {
	tests := []struct {
		name    string
		library string
		result  string
	}{
		{name: "success", library: "react", result: "success"},
		{name: "failure", library: "vue", result: "failure"},
		{name: "not modified", library: "svelte", result: "not_modified"},
		{name: "empty library", library: "", result: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordPageFetch(tt.library, tt.result)
			})
		})
	}
}

func TestRecordJobCompleted(t *testing.T) {
	tests := []struct {
		name     string
		jobType  string
		duration time.Duration
	}{
		{name: "scrape", jobType: "scrape", duration: 2 * time.Second},
		{name: "refresh", jobType: "refresh", duration: 500 * time.Millisecond},
		{name: "remove version", jobType: "remove_version", duration: 10 * time.Millisecond},
		{name: "zero duration", jobType: "scrape", duration: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordJobCompleted(tt.jobType, tt.duration)
			})
		})
	}
}

func TestRecordJobError(t *testing.T) {
	tests := []struct {
		name      string
		jobType   string
		errorType string
	}{
		{name: "scrape failed", jobType: "scrape", errorType: "failed"},
		{name: "refresh cancelled", jobType: "refresh", errorType: "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordJobError(tt.jobType, tt.errorType)
			})
		})
	}
}

func TestUpdateLibrariesTotal(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{name: "zero libraries", count: 0},
		{name: "some libraries", count: 100},
		{name: "many libraries", count: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateLibrariesTotal(tt.count)
			})
		})
	}
}

func TestUpdateVersionsTotal(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{name: "zero versions", count: 0},
		{name: "some versions", count: 10},
		{name: "many versions", count: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateVersionsTotal(tt.count)
			})
		})
	}
}

func TestRecordContentFetch(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		duration  time.Duration
	}{
		{name: "select query", operation: "select_pages", duration: 10 * time.Millisecond},
		{name: "insert query", operation: "insert_page", duration: 5 * time.Millisecond},
		{name: "slow query", operation: "complex_join", duration: 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordContentFetchSuccess(tt.duration, 2048)
				RecordContentFetchFailed(tt.duration)
				RecordContentFetchSkipped()
				RecordDBQuery(tt.operation, tt.duration)
			})
		})
	}
}

func TestUpdateDBConnectionStats(t *testing.T) {
	tests := []struct {
		name   string
		active int
		idle   int
	}{
		{name: "no connections", active: 0, idle: 0},
		{name: "some active", active: 5, idle: 10},
		{name: "all active", active: 25, idle: 0},
		{name: "all idle", active: 0, idle: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateDBConnectionStats(tt.active, tt.idle)
			})
		})
	}
}

func TestMetricsFunctions_AllCallable(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordPageFetch("react", "success")
		RecordJobCompleted("scrape", 2*time.Second)
		RecordJobError("scrape", "failed")
		UpdateLibrariesTotal(100)
		UpdateVersionsTotal(10)
		RecordContentFetchSuccess(10*time.Millisecond, 1024)
		RecordContentFetchFailed(10 * time.Millisecond)
		RecordContentFetchSkipped()
		RecordDBQuery("test_operation", 10*time.Millisecond)
		UpdateDBConnectionStats(5, 10)
	})
}
