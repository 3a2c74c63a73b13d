package services

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownIdentity is returned when a detection references an identity
	// code that was never registered (or has been deactivated)
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrStoreUnavailable is returned after the ledger's internal retries for
	// a single logical write are exhausted; callers should retry with backoff
	ErrStoreUnavailable = errors.New("presence store unavailable")

	// ErrInvariantViolation signals a duplicate presence row for one
	// identity+day was detected at write time. Should never be observable.
	ErrInvariantViolation = errors.New("presence record invariant violation")
)

// DetectionOutcome classifies what a recordDetection call did. Threshold and
// cooldown outcomes are normal control flow, not errors.
type DetectionOutcome string

const (
	OutcomeAccepted       DetectionOutcome = "accepted"
	OutcomeCooldown       DetectionOutcome = "cooldown"
	OutcomeBelowThreshold DetectionOutcome = "below_threshold"
)

// DetectionEvent is the fixed-shape event record produced by the
// identity-recognition engine, validated at the boundary.
type DetectionEvent struct {
	IdentityCode    string
	Confidence      float64 // in [0,1]
	Location        string
	SourceSessionID string
	ObservedAt      time.Time
}

// DetectionResult reports the outcome of one event.
type DetectionResult struct {
	Outcome      DetectionOutcome
	IdentityCode string
	Day          string
	// MarkedPresent is true only for the first accepted detection of the day,
	// i.e. the event that created the presence record
	MarkedPresent bool
}

// DailyStatistics aggregates one day's presence across all active identities.
type DailyStatistics struct {
	Day             string
	TotalRegistered int
	PresentCount    int
	AbsentCount     int
	PresenceRate    float64 // percent
	ByDepartment    map[string]DepartmentStatistics
}

type DepartmentStatistics struct {
	Registered   int
	Present      int
	PresenceRate float64
}

// DayPresence is one entry of an identity's day-by-day trend.
type DayPresence struct {
	Day     string
	Present bool
}

// IdentityStatistics is the per-identity rolling window view served through
// the read cache.
type IdentityStatistics struct {
	IdentityCode   string
	Name           string
	Department     string
	WindowDays     int
	PresentDays    int
	PresenceRate   float64 // percent
	LastSeen       *time.Time
	DetectionCount int64
	Trend          []DayPresence
}

// ExportRow is one flat tabular row of an export; formatting (CSV, sheet) is
// the caller's concern.
type ExportRow struct {
	IdentityCode string
	Name         string
	Department   string
	Day          string
	FirstSeen    time.Time
	LastSeen     time.Time
	Status       string
	Location     string
	Confidence   float64
}

// RecentDetection is one audit session joined with the identity's name, for
// the dashboard live panel.
type RecentDetection struct {
	IdentityCode string
	Name         string
	DetectedAt   time.Time
	Confidence   float64
	Location     string
	Accepted     bool
}

// LedgerService is the façade the two producer pipelines and the dashboard
// talk to. RecordDetection serializes concurrent events per identity;
// different identities never block each other.
type LedgerService interface {
	// RecordDetection routes one event through the deduplicator and the
	// presence store. Returns the outcome, or ErrUnknownIdentity /
	// ErrStoreUnavailable / ErrInvariantViolation.
	RecordDetection(ctx context.Context, event DetectionEvent) (*DetectionResult, error)

	// GetDailyStatistics aggregates one day across active identities, with
	// the department breakdown computed in-service
	GetDailyStatistics(ctx context.Context, day string) (*DailyStatistics, error)

	// GetIdentityStatistics returns the rolling-window view for one identity,
	// served through the read cache
	GetIdentityStatistics(ctx context.Context, identityCode string, windowDays int) (*IdentityStatistics, error)

	// ExportRange returns presence rows in [startDay, endDay] sorted by day
	// then identity code, optionally filtered by department
	ExportRange(ctx context.Context, startDay, endDay, department string) ([]ExportRow, error)

	// RecentDetections returns the newest audit sessions
	RecentDetections(ctx context.Context, limit int) ([]RecentDetection, error)

	// ResetDay removes the day's presence records (sessions are kept) and
	// clears deduplicator and cache state. Administrative only.
	ResetDay(ctx context.Context, day string) (int64, error)

	// Day converts a timestamp to the deployment's local calendar day
	Day(t time.Time) string
}
