package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
	"safesight/domain/services"
	"safesight/infrastructure/cache"
	"safesight/pkg/keylock"
	"safesight/pkg/logger"
)

const (
	dayFormat     = "2006-01-02"
	writeAttempts = 3
	retryBaseWait = 50 * time.Millisecond
)

// LedgerOptions carries the ledger tunables; defaults are set by config.
type LedgerOptions struct {
	ConfidenceThreshold float64
	Cooldown            time.Duration
	Timezone            *time.Location
	HistoryWindowDays   int
}

// LedgerServiceImpl combines the event deduplicator, the presence store and
// the read cache behind the LedgerService façade. Same-identity events are
// serialized through sharded key locks; different identities proceed
// independently.
type LedgerServiceImpl struct {
	identityRepo repositories.IdentityRepository
	presenceRepo repositories.PresenceRepository
	sessionRepo  repositories.DetectionSessionRepository
	readCache    *cache.ReadCache
	feed         services.DetectionFeed // optional

	threshold  float64
	cooldown   time.Duration
	loc        *time.Location
	windowDays int

	locks *keylock.KeyLock

	// lastAccepted holds the timestamp of the last accepted event per
	// identity. Reads and writes happen under the identity's key lock; the
	// mutex only guards the map itself.
	lastMu       sync.Mutex
	lastAccepted map[string]time.Time
}

func NewLedgerService(
	identityRepo repositories.IdentityRepository,
	presenceRepo repositories.PresenceRepository,
	sessionRepo repositories.DetectionSessionRepository,
	readCache *cache.ReadCache,
	feed services.DetectionFeed,
	opts LedgerOptions,
) services.LedgerService {
	if opts.Timezone == nil {
		opts.Timezone = time.Local
	}
	if opts.HistoryWindowDays < 1 {
		opts.HistoryWindowDays = 30
	}

	return &LedgerServiceImpl{
		identityRepo: identityRepo,
		presenceRepo: presenceRepo,
		sessionRepo:  sessionRepo,
		readCache:    readCache,
		feed:         feed,
		threshold:    opts.ConfidenceThreshold,
		cooldown:     opts.Cooldown,
		loc:          opts.Timezone,
		windowDays:   opts.HistoryWindowDays,
		locks:        keylock.New(64),
		lastAccepted: make(map[string]time.Time),
	}
}

// Day converts a timestamp to the deployment's local calendar day.
func (s *LedgerServiceImpl) Day(t time.Time) string {
	return t.In(s.loc).Format(dayFormat)
}

func (s *LedgerServiceImpl) RecordDetection(ctx context.Context, event services.DetectionEvent) (*services.DetectionResult, error) {
	// Below threshold the event is not an identification at all: discarded
	// entirely, no audit row.
	if event.Confidence < s.threshold {
		return &services.DetectionResult{
			Outcome:      services.OutcomeBelowThreshold,
			IdentityCode: event.IdentityCode,
		}, nil
	}

	s.locks.Lock(event.IdentityCode)
	defer s.locks.Unlock(event.IdentityCode)

	identity, err := s.identityRepo.GetByCode(ctx, event.IdentityCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnknownIdentity
		}
		return nil, fmt.Errorf("%w: identity lookup: %v", services.ErrStoreUnavailable, err)
	}
	if !identity.Active {
		return nil, services.ErrUnknownIdentity
	}

	day := s.Day(event.ObservedAt)

	var existing *models.PresenceRecord
	err = s.withRetries(ctx, func() error {
		var getErr error
		existing, getErr = s.presenceRepo.Get(ctx, event.IdentityCode, day)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: presence read: %v", services.ErrStoreUnavailable, err)
	}

	// The in-memory last-accepted timestamp drives the cooldown. After a
	// restart the day's persisted last_seen seeds it, so a retried event
	// cannot re-create the day's first-seen.
	last, known := s.getLastAccepted(event.IdentityCode)
	if !known && existing != nil {
		last = existing.LastSeen
		known = true
	}

	if known && event.ObservedAt.Sub(last) < s.cooldown {
		s.appendSession(ctx, event, false)
		result := &services.DetectionResult{
			Outcome:      services.OutcomeCooldown,
			IdentityCode: event.IdentityCode,
			Day:          day,
		}
		s.publish(ctx, result)
		return result, nil
	}

	err = s.withRetries(ctx, func() error {
		return s.presenceRepo.Upsert(ctx, repositories.PresenceUpsert{
			IdentityCode: event.IdentityCode,
			Day:          day,
			SeenAt:       event.ObservedAt,
			Confidence:   event.Confidence,
			Location:     event.Location,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Should never happen with the conditional upsert; reject and
			// keep the event in the audit trail instead of merging silently.
			logger.LedgerWarn("invariant_violation", "Duplicate presence row rejected", map[string]interface{}{
				"identity_code": event.IdentityCode,
				"day":           day,
			})
			s.appendSession(ctx, event, false)
			return nil, services.ErrInvariantViolation
		}
		return nil, fmt.Errorf("%w: presence upsert: %v", services.ErrStoreUnavailable, err)
	}

	s.setLastAccepted(event.IdentityCode, event.ObservedAt)
	s.appendSession(ctx, event, true)

	// Synchronous invalidation: a read right after this call must not see
	// pre-detection data for this identity.
	s.readCache.Invalidate(event.IdentityCode)

	result := &services.DetectionResult{
		Outcome:       services.OutcomeAccepted,
		IdentityCode:  event.IdentityCode,
		Day:           day,
		MarkedPresent: existing == nil,
	}
	if result.MarkedPresent {
		logger.Ledger("marked_present", "First accepted detection of the day", map[string]interface{}{
			"identity_code": event.IdentityCode,
			"day":           day,
			"location":      event.Location,
		})
	}
	s.publish(ctx, result)
	return result, nil
}

func (s *LedgerServiceImpl) GetDailyStatistics(ctx context.Context, day string) (*services.DailyStatistics, error) {
	records, err := s.presenceRepo.QueryDaily(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("%w: daily query: %v", services.ErrStoreUnavailable, err)
	}

	identities, err := s.identityRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: identity list: %v", services.ErrStoreUnavailable, err)
	}

	present := make(map[string]bool, len(records))
	for i := range records {
		if records[i].Status == models.StatusPresent || records[i].Status == models.StatusManual {
			present[records[i].IdentityCode] = true
		}
	}

	stats := &services.DailyStatistics{
		Day:             day,
		TotalRegistered: len(identities),
		ByDepartment:    make(map[string]services.DepartmentStatistics),
	}

	for i := range identities {
		dept := identities[i].Department
		if dept == "" {
			dept = "Not Specified"
		}
		deptStats := stats.ByDepartment[dept]
		deptStats.Registered++
		if present[identities[i].Code] {
			stats.PresentCount++
			deptStats.Present++
		}
		stats.ByDepartment[dept] = deptStats
	}

	stats.AbsentCount = stats.TotalRegistered - stats.PresentCount
	stats.PresenceRate = rate(stats.PresentCount, stats.TotalRegistered)
	for dept, deptStats := range stats.ByDepartment {
		deptStats.PresenceRate = rate(deptStats.Present, deptStats.Registered)
		stats.ByDepartment[dept] = deptStats
	}

	return stats, nil
}

func (s *LedgerServiceImpl) GetIdentityStatistics(ctx context.Context, identityCode string, windowDays int) (*services.IdentityStatistics, error) {
	if windowDays < 1 {
		windowDays = s.windowDays
	}

	// Only the default window is cached; invalidation then stays a single
	// key per identity.
	cacheable := windowDays == s.windowDays
	if cacheable {
		if stats, ok := s.readCache.GetIdentityStats(identityCode); ok {
			return stats, nil
		}
	}

	identity, err := s.identityRepo.GetByCode(ctx, identityCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnknownIdentity
		}
		return nil, fmt.Errorf("%w: identity lookup: %v", services.ErrStoreUnavailable, err)
	}

	now := time.Now().In(s.loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -(windowDays - 1))
	sinceDay := windowStart.Format(dayFormat)

	records, err := s.presenceRepo.QueryIdentityHistory(ctx, identityCode, sinceDay)
	if err != nil {
		return nil, fmt.Errorf("%w: history query: %v", services.ErrStoreUnavailable, err)
	}

	detectionCount, err := s.sessionRepo.CountByIdentitySince(ctx, identityCode, windowStart)
	if err != nil {
		return nil, fmt.Errorf("%w: session count: %v", services.ErrStoreUnavailable, err)
	}

	presentDays := make(map[string]bool, len(records))
	var lastSeen *time.Time
	for i := range records {
		rec := &records[i]
		if rec.Status == models.StatusPresent || rec.Status == models.StatusManual {
			presentDays[rec.Day] = true
		}
		if lastSeen == nil || rec.LastSeen.After(*lastSeen) {
			seen := rec.LastSeen
			lastSeen = &seen
		}
	}

	trend := make([]services.DayPresence, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(dayFormat)
		trend = append(trend, services.DayPresence{Day: day, Present: presentDays[day]})
	}

	stats := &services.IdentityStatistics{
		IdentityCode:   identityCode,
		Name:           identity.Name,
		Department:     identity.Department,
		WindowDays:     windowDays,
		PresentDays:    len(presentDays),
		PresenceRate:   rate(len(presentDays), windowDays),
		LastSeen:       lastSeen,
		DetectionCount: detectionCount,
		Trend:          trend,
	}

	if cacheable {
		s.readCache.SetIdentityStats(identityCode, stats)
	}
	return stats, nil
}

func (s *LedgerServiceImpl) ExportRange(ctx context.Context, startDay, endDay, department string) ([]services.ExportRow, error) {
	if startDay > endDay {
		return nil, fmt.Errorf("invalid range: %s after %s", startDay, endDay)
	}

	records, err := s.presenceRepo.QueryRange(ctx, startDay, endDay, department)
	if err != nil {
		return nil, fmt.Errorf("%w: range query: %v", services.ErrStoreUnavailable, err)
	}

	names, err := s.identityNames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]services.ExportRow, 0, len(records))
	for i := range records {
		rec := &records[i]
		ident := names[rec.IdentityCode]
		rows = append(rows, services.ExportRow{
			IdentityCode: rec.IdentityCode,
			Name:         ident.Name,
			Department:   ident.Department,
			Day:          rec.Day,
			FirstSeen:    rec.FirstSeen,
			LastSeen:     rec.LastSeen,
			Status:       string(rec.Status),
			Location:     rec.Location,
			Confidence:   rec.LastConfidence,
		})
	}

	// Ordering is part of the contract, not an accident of the store.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return rows[i].IdentityCode < rows[j].IdentityCode
	})
	return rows, nil
}

func (s *LedgerServiceImpl) RecentDetections(ctx context.Context, limit int) ([]services.RecentDetection, error) {
	if limit < 1 {
		limit = 10
	}

	sessions, err := s.sessionRepo.GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent sessions: %v", services.ErrStoreUnavailable, err)
	}

	names, err := s.identityNames(ctx)
	if err != nil {
		return nil, err
	}

	detections := make([]services.RecentDetection, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		detections = append(detections, services.RecentDetection{
			IdentityCode: sess.IdentityCode,
			Name:         names[sess.IdentityCode].Name,
			DetectedAt:   sess.DetectedAt,
			Confidence:   sess.Confidence,
			Location:     sess.Location,
			Accepted:     sess.Accepted,
		})
	}
	return detections, nil
}

func (s *LedgerServiceImpl) ResetDay(ctx context.Context, day string) (int64, error) {
	var deleted int64
	err := s.withRetries(ctx, func() error {
		var delErr error
		deleted, delErr = s.presenceRepo.DeleteByDay(ctx, day)
		return delErr
	})
	if err != nil {
		return 0, fmt.Errorf("%w: day reset: %v", services.ErrStoreUnavailable, err)
	}

	// The deduplicator state and the cache refer to presence that no longer
	// exists; drop both wholesale. Sessions are kept as the audit trail.
	s.lastMu.Lock()
	s.lastAccepted = make(map[string]time.Time)
	s.lastMu.Unlock()
	s.readCache.Flush()

	logger.Ledger("day_reset", "Presence records removed for day", map[string]interface{}{
		"day":     day,
		"deleted": deleted,
	})
	return deleted, nil
}

func (s *LedgerServiceImpl) getLastAccepted(code string) (time.Time, bool) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	t, ok := s.lastAccepted[code]
	return t, ok
}

func (s *LedgerServiceImpl) setLastAccepted(code string, t time.Time) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	s.lastAccepted[code] = t
}

// appendSession writes the audit row. Sessions are audit-only: a failure is
// logged but never changes the outcome already decided.
func (s *LedgerServiceImpl) appendSession(ctx context.Context, event services.DetectionEvent, accepted bool) {
	err := s.withRetries(ctx, func() error {
		return s.sessionRepo.Append(ctx, &models.DetectionSession{
			IdentityCode:    event.IdentityCode,
			DetectedAt:      event.ObservedAt,
			Confidence:      event.Confidence,
			Location:        event.Location,
			SourceSessionID: event.SourceSessionID,
			Accepted:        accepted,
		})
	})
	if err != nil {
		logger.LedgerError("session_append_failed", "Failed to append detection session", err, map[string]interface{}{
			"identity_code": event.IdentityCode,
		})
	}
}

func (s *LedgerServiceImpl) publish(ctx context.Context, result *services.DetectionResult) {
	if s.feed != nil {
		s.feed.PublishDetection(ctx, *result)
	}
}

func (s *LedgerServiceImpl) identityNames(ctx context.Context) (map[string]models.Identity, error) {
	identities, err := s.identityRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: identity list: %v", services.ErrStoreUnavailable, err)
	}
	names := make(map[string]models.Identity, len(identities))
	for i := range identities {
		names[identities[i].Code] = identities[i]
	}
	return names, nil
}

// withRetries runs op up to writeAttempts times with linear backoff. Constraint
// violations are surfaced immediately; only transient store failures retry.
func (s *LedgerServiceImpl) withRetries(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBaseWait):
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
