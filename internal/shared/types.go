package shared

// Task types
const (
	TypeRetryCompensation = "taxonomy:retry_compensation"
	TypeSweepStaleRuns    = "taxonomy:sweep_stale_runs"
)

// Queues
const (
	QueueTaxonomy = "taxonomy"
	QueueDefault  = "default"
)

// Queues maps queue names to their asynq priority weight
var Queues = map[string]int{
	QueueTaxonomy: 10,
	QueueDefault:  5,
}
