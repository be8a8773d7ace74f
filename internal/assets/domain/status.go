// Package domain provides core business rules for the assets bounded context:
// the asset status machine, per-kind stage plans, and the classification of
// uploads into asset kinds.
package domain

const (
	// StatusUnchanged is a sentinel indicating that a derivation function
	// intentionally does not prescribe a status. The caller must substitute
	// the current status of the asset.
	StatusUnchanged = ""

	StatusPendingUpload = "pending_upload"
	StatusUploaded      = "uploaded"
	StatusThumbnailing  = "thumbnailing"
	StatusExtracting    = "extracting"
	StatusEmbedding     = "embedding"
	StatusScoring       = "scoring"
	StatusFinalizing    = "finalizing"
	StatusReady         = "ready"
	StatusFailed        = "failed"
	StatusQuarantined   = "quarantined"
)

var knownStatuses = map[string]struct{}{
	StatusPendingUpload: {},
	StatusUploaded:      {},
	StatusThumbnailing:  {},
	StatusExtracting:    {},
	StatusEmbedding:     {},
	StatusScoring:       {},
	StatusFinalizing:    {},
	StatusReady:         {},
	StatusFailed:        {},
	StatusQuarantined:   {},
}

// IsKnownStatus returns true if the status is part of the asset lifecycle.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// transientStatuses are statuses where a worker owns the asset and progress
// is expected. The watchdog only looks at these.
var transientStatuses = map[string]bool{
	StatusThumbnailing: true,
	StatusExtracting:   true,
	StatusEmbedding:    true,
	StatusScoring:      true,
	StatusFinalizing:   true,
}

// IsTransientStatus returns true for statuses where a pipeline stage is
// supposed to be in flight.
func IsTransientStatus(status string) bool {
	return transientStatuses[status]
}

// terminalStatuses are statuses the pipeline never moves an asset out of on
// its own. Quarantined assets need an explicit admin release.
var terminalStatuses = map[string]bool{
	StatusReady:       true,
	StatusQuarantined: true,
}

// IsTerminalStatus returns true if the pipeline is done with the asset.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// allowedTransitions is the explicit status transition table. Every status
// write outside of asset creation must pass CanTransition; repository updates
// additionally compare-and-swap on the expected current status so concurrent
// workers cannot corrupt the journey.
//
// failed fans back out to uploaded and to every stage's active status: a
// retried task claims its own stage again, and a manual retry may resume at
// any incomplete stage rather than at the beginning.
var allowedTransitions = map[string]map[string]bool{
	StatusPendingUpload: {
		StatusUploaded: true,
		StatusFailed:   true,
	},
	StatusUploaded: {
		StatusThumbnailing: true,
		StatusExtracting:   true, // kinds that skip thumbnailing
		StatusFailed:       true,
	},
	StatusThumbnailing: {
		StatusExtracting: true,
		StatusFailed:     true,
	},
	StatusExtracting: {
		StatusEmbedding: true,
		StatusScoring:   true, // kinds that skip embedding
		StatusFailed:    true,
	},
	StatusEmbedding: {
		StatusScoring: true,
		StatusFailed:  true,
	},
	StatusScoring: {
		StatusFinalizing:  true,
		StatusQuarantined: true,
		StatusFailed:      true,
	},
	StatusFinalizing: {
		StatusReady:  true,
		StatusFailed: true,
	},
	StatusFailed: {
		StatusUploaded:     true,
		StatusThumbnailing: true,
		StatusExtracting:   true,
		StatusEmbedding:    true,
		StatusScoring:      true,
		StatusFinalizing:   true,
	},
	StatusQuarantined: {
		StatusScoring: true, // admin release re-runs compliance scoring
	},
	StatusReady: {},
}

// CanTransition reports whether moving an asset from one status to another
// is a legal lifecycle step.
func CanTransition(from, to string) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}
