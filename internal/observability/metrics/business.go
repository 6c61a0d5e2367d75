package metrics

import (
	"time"
)

// RecordPageFetch records the outcome of fetching one page during a crawl.
// result should be "success", "failure", or "not_modified".
func RecordPageFetch(library, result string) {
	PagesFetchedTotal.WithLabelValues(library, result).Inc()
}

// RecordJobCompleted records a pipeline manager job's duration.
// jobType should be "scrape", "refresh", or "remove_version".
func RecordJobCompleted(jobType string, duration time.Duration) {
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// RecordJobError records a failed pipeline manager job.
func RecordJobError(jobType, errorType string) {
	JobErrorsTotal.WithLabelValues(jobType, errorType).Inc()
}

// UpdateLibrariesTotal updates the total count of libraries in the store.
// This gauge should be updated periodically to reflect the current state.
func UpdateLibrariesTotal(count int) {
	LibrariesTotal.Set(float64(count))
}

// UpdateVersionsTotal updates the total count of indexed versions in the store.
func UpdateVersionsTotal(count int) {
	VersionsTotal.Set(float64(count))
}

// RecordContentFetchSuccess records a successful content fetch operation.
// This tracks both the duration and size of fetched content.
//
// Parameters:
//   - duration: Time taken to fetch the content
//   - size: Size of fetched content in bytes
func RecordContentFetchSuccess(duration time.Duration, size int) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
	ContentFetchSize.Observe(float64(size))
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a skipped content fetch operation, e.g.
// a 304 Not Modified response during a refresh job.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_pages", "insert_page").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
