package config

const (
	DefaultTimeZone     = "Asia/Tehran"
	DefaultSyncSchedule = "0 2 * * *" // nightly ledger sync at 2 AM
	BatchSize           = 500

	// Classification Constants
	ClassifyWorkers     = 4
	LegacyFeeMaxAmount  = 500000 // rials; small-amount fee cutoff for the legacy keyword tier
	NameMatchThreshold  = 0.70   // token-overlap share required to verify a name candidate
	EmbeddingCandidates = 5
	FuzzyCandidates     = 10

	// Rahkaran Sync Constants
	ProxyTimeoutSeconds  = 40
	SubmitAttempts       = 3
	SubmitBackoffSeconds = 3
	NumberingAttempts    = 5
	DailyNumberGapOffset = 50 // seeded gap to avoid collisions with manual entries
	DefaultVoucherType   = 1
)
