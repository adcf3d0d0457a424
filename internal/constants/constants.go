package constants

import "time"

// Scheduled sweep intervals. Profiles and squads refresh on independent
// timers; the match cleanup runs much less often.
const (
	ProfileSweepInterval = 7 * time.Minute
	SquadSweepInterval   = 10 * time.Minute
	MatchCleanupInterval = 12 * time.Hour
)

// Staleness thresholds: an aggregate is eligible for a sweep when its
// lastUpdatedAt is older than this.
const (
	ProfileStaleAfter = 15 * time.Minute
	SquadStaleAfter   = 15 * time.Minute
	MatchStaleAfter   = 12 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 10 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

// Upstream fetch behavior. The upstream returns at most PageSize matches per
// request; the first page is retried more aggressively than later ones
// because a failed first page leaves us with nothing to return.
const (
	PageSize           = 20
	FirstPageRetries   = 5
	LaterPageRetries   = 2
	InitialFetchPages  = 5
	PersistenceRetries = 1
)
