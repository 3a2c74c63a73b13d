package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
	"safesight/domain/services"
	"safesight/infrastructure/cache"
)

// In-memory fakes with the same contract as the Postgres repositories. The
// presence fake replicates the conditional upsert: first_seen is only set on
// insert, last_seen never moves backwards.

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*models.Identity
}

func newFakeIdentityRepo(identities ...*models.Identity) *fakeIdentityRepo {
	repo := &fakeIdentityRepo{identities: make(map[string]*models.Identity)}
	for _, identity := range identities {
		repo.identities[identity.Code] = identity
	}
	return repo
}

func (r *fakeIdentityRepo) Create(ctx context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[identity.Code] = identity
	return nil
}

func (r *fakeIdentityRepo) GetByCode(ctx context.Context, code string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *identity
	return &copied, nil
}

func (r *fakeIdentityRepo) List(ctx context.Context, department string, offset, limit int) ([]models.Identity, int64, error) {
	all, _ := r.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (r *fakeIdentityRepo) ListActive(ctx context.Context) ([]models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Identity
	for _, identity := range r.identities {
		if identity.Active {
			out = append(out, *identity)
		}
	}
	return out, nil
}

func (r *fakeIdentityRepo) ListAll(ctx context.Context) ([]models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Identity
	for _, identity := range r.identities {
		out = append(out, *identity)
	}
	return out, nil
}

func (r *fakeIdentityRepo) Update(ctx context.Context, code string, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[code] = identity
	return nil
}

func (r *fakeIdentityRepo) SetRecognitionEnabled(ctx context.Context, code string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.identities[code]; ok {
		identity.RecognitionEnabled = enabled
	}
	return nil
}

func (r *fakeIdentityRepo) Deactivate(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.identities[code]; ok {
		identity.Active = false
	}
	return nil
}

type fakePresenceRepo struct {
	mu      sync.Mutex
	records map[string]*models.PresenceRecord // key: code|day

	failUpserts int // remaining upserts that return a transient error
	upsertCalls int
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{records: make(map[string]*models.PresenceRecord)}
}

func presenceKey(code, day string) string {
	return code + "|" + day
}

func (r *fakePresenceRepo) Upsert(ctx context.Context, up repositories.PresenceUpsert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertCalls++
	if r.failUpserts > 0 {
		r.failUpserts--
		return fmt.Errorf("connection refused")
	}

	key := presenceKey(up.IdentityCode, up.Day)
	rec, ok := r.records[key]
	if !ok {
		r.records[key] = &models.PresenceRecord{
			IdentityCode:   up.IdentityCode,
			Day:            up.Day,
			FirstSeen:      up.SeenAt,
			LastSeen:       up.SeenAt,
			Status:         models.StatusPresent,
			Location:       up.Location,
			LastConfidence: up.Confidence,
		}
		return nil
	}

	if up.SeenAt.After(rec.LastSeen) {
		rec.LastSeen = up.SeenAt
	}
	rec.Location = up.Location
	rec.LastConfidence = up.Confidence
	return nil
}

func (r *fakePresenceRepo) Get(ctx context.Context, identityCode, day string) (*models.PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[presenceKey(identityCode, day)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *fakePresenceRepo) QueryDaily(ctx context.Context, day string) ([]models.PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PresenceRecord
	for _, rec := range r.records {
		if rec.Day == day {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakePresenceRepo) QueryIdentityHistory(ctx context.Context, identityCode, sinceDay string) ([]models.PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PresenceRecord
	for _, rec := range r.records {
		if rec.IdentityCode == identityCode && rec.Day >= sinceDay {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakePresenceRepo) QueryRange(ctx context.Context, startDay, endDay, department string) ([]models.PresenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PresenceRecord
	for _, rec := range r.records {
		if rec.Day >= startDay && rec.Day <= endDay {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakePresenceRepo) DeleteByDay(ctx context.Context, day string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, rec := range r.records {
		if rec.Day == day {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakePresenceRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []models.DetectionSession
}

func (r *fakeSessionRepo) Append(ctx context.Context, session *models.DetectionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, *session)
	return nil
}

func (r *fakeSessionRepo) GetRecent(ctx context.Context, limit int) ([]models.DetectionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DetectionSession
	for i := len(r.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.sessions[i])
	}
	return out, nil
}

func (r *fakeSessionRepo) CountByIdentitySince(ctx context.Context, identityCode string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for i := range r.sessions {
		if r.sessions[i].IdentityCode == identityCode && !r.sessions[i].DetectedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *fakeSessionRepo) acceptedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.sessions {
		if r.sessions[i].Accepted {
			n++
		}
	}
	return n
}

type ledgerFixture struct {
	svc          services.LedgerService
	identityRepo *fakeIdentityRepo
	presenceRepo *fakePresenceRepo
	sessionRepo  *fakeSessionRepo
	readCache    *cache.ReadCache
}

func newLedgerFixture(t *testing.T, opts LedgerOptions, identities ...*models.Identity) *ledgerFixture {
	t.Helper()

	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}

	identityRepo := newFakeIdentityRepo(identities...)
	presenceRepo := newFakePresenceRepo()
	sessionRepo := &fakeSessionRepo{}
	readCache := cache.NewReadCache(time.Minute)

	svc := NewLedgerService(identityRepo, presenceRepo, sessionRepo, readCache, nil, opts)

	return &ledgerFixture{
		svc:          svc,
		identityRepo: identityRepo,
		presenceRepo: presenceRepo,
		sessionRepo:  sessionRepo,
		readCache:    readCache,
	}
}

func activeIdentity(code, name, department string) *models.Identity {
	return &models.Identity{Code: code, Name: name, Department: department, Active: true}
}

func detectionAt(code string, confidence float64, at time.Time) services.DetectionEvent {
	return services.DetectionEvent{
		IdentityCode:    code,
		Confidence:      confidence,
		Location:        "entrance",
		SourceSessionID: "cam-1",
		ObservedAt:      at,
	}
}

func TestRecordDetection_FirstOfDayMarksPresent(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	result, err := fix.svc.RecordDetection(context.Background(), detectionAt("EMP-001", 0.92, at))

	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, result.Outcome)
	assert.True(t, result.MarkedPresent)
	assert.Equal(t, "2026-03-09", result.Day)

	rec, err := fix.presenceRepo.Get(context.Background(), "EMP-001", "2026-03-09")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, at, rec.FirstSeen)
	assert.Equal(t, at, rec.LastSeen)
	assert.Equal(t, 1, fix.sessionRepo.acceptedCount())
}

func TestRecordDetection_CooldownSuppressesButAudits(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	first, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, first.Outcome)

	second, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.95, at.Add(10*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCooldown, second.Outcome)
	assert.False(t, second.MarkedPresent)

	// Suppressed event still leaves an audit row, but the presence record is
	// untouched.
	assert.Equal(t, 2, fix.sessionRepo.count())
	assert.Equal(t, 1, fix.sessionRepo.acceptedCount())

	rec, _ := fix.presenceRepo.Get(ctx, "EMP-001", "2026-03-09")
	assert.Equal(t, at, rec.LastSeen)
}

func TestRecordDetection_AcceptsAfterCooldownAndKeepsFirstSeen(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	later := at.Add(45 * time.Second)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at))
	require.NoError(t, err)

	result, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.8, later))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, result.Outcome)
	assert.False(t, result.MarkedPresent, "only the day's first accepted detection creates the record")

	rec, _ := fix.presenceRepo.Get(ctx, "EMP-001", "2026-03-09")
	assert.Equal(t, at, rec.FirstSeen, "first_seen is immutable after creation")
	assert.Equal(t, later, rec.LastSeen)
	assert.Equal(t, 1, fix.presenceRepo.count())
}

func TestRecordDetection_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		wantOutcome services.DetectionOutcome
		wantAudited bool
	}{
		{"above threshold", 0.75, services.OutcomeAccepted, true},
		{"exactly at threshold", 0.55, services.OutcomeAccepted, true},
		{"just below threshold", 0.549, services.OutcomeBelowThreshold, false},
		{"zero confidence", 0, services.OutcomeBelowThreshold, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := newLedgerFixture(t, LedgerOptions{
				ConfidenceThreshold: 0.55,
				Cooldown:            30 * time.Second,
			}, activeIdentity("EMP-001", "Alice", "Engineering"))

			at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
			result, err := fix.svc.RecordDetection(context.Background(), detectionAt("EMP-001", tt.confidence, at))

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)

			if tt.wantAudited {
				assert.Equal(t, 1, fix.sessionRepo.count())
			} else {
				// Below threshold the event is discarded entirely.
				assert.Equal(t, 0, fix.sessionRepo.count())
				assert.Equal(t, 0, fix.presenceRepo.count())
			}
		})
	}
}

func TestRecordDetection_UnknownIdentity(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	})

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	_, err := fix.svc.RecordDetection(context.Background(), detectionAt("GHOST", 0.9, at))

	assert.ErrorIs(t, err, services.ErrUnknownIdentity)
	assert.Equal(t, 0, fix.presenceRepo.count())
	assert.Equal(t, 0, fix.sessionRepo.count())
}

func TestRecordDetection_DeactivatedIdentityRejected(t *testing.T) {
	inactive := activeIdentity("EMP-009", "Bob", "Sales")
	inactive.Active = false

	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, inactive)

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	_, err := fix.svc.RecordDetection(context.Background(), detectionAt("EMP-009", 0.9, at))

	assert.ErrorIs(t, err, services.ErrUnknownIdentity)
}

func TestRecordDetection_RetriesTransientUpsertFailure(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	fix.presenceRepo.failUpserts = 2

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	result, err := fix.svc.RecordDetection(context.Background(), detectionAt("EMP-001", 0.9, at))

	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, result.Outcome)
	assert.Equal(t, 3, fix.presenceRepo.upsertCalls)
}

func TestRecordDetection_StoreUnavailableAfterRetries(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	fix.presenceRepo.failUpserts = 10

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	_, err := fix.svc.RecordDetection(context.Background(), detectionAt("EMP-001", 0.9, at))

	assert.ErrorIs(t, err, services.ErrStoreUnavailable)
	assert.Equal(t, 0, fix.presenceRepo.count())
}

func TestRecordDetection_ConcurrentSameIdentity(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            0,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	base := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	const n = 32

	var wg sync.WaitGroup
	var markedPresent int64
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, base.Add(time.Duration(i)*time.Second)))
			if err != nil {
				return
			}
			if result.MarkedPresent {
				mu.Lock()
				markedPresent++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, fix.presenceRepo.count(), "exactly one presence record per identity per day")
	assert.Equal(t, int64(1), markedPresent, "exactly one event creates the record")

	rec, _ := fix.presenceRepo.Get(ctx, "EMP-001", "2026-03-09")
	assert.Equal(t, base, rec.FirstSeen)
	assert.Equal(t, base.Add((n-1)*time.Second), rec.LastSeen, "last_seen converges to the maximum observed timestamp")
}

func TestRecordDetection_MidnightSplitsDays(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	beforeMidnight := time.Date(2026, 3, 9, 23, 59, 50, 0, time.UTC)
	afterMidnight := time.Date(2026, 3, 10, 0, 0, 40, 0, time.UTC)

	first, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, beforeMidnight))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", first.Day)

	second, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, afterMidnight))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, second.Outcome)
	assert.Equal(t, "2026-03-10", second.Day)
	assert.True(t, second.MarkedPresent, "new day means a new presence record")

	assert.Equal(t, 2, fix.presenceRepo.count())
}

func TestRecordDetection_CooldownSpansMidnight(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            60 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	beforeMidnight := time.Date(2026, 3, 9, 23, 59, 50, 0, time.UTC)
	afterMidnight := time.Date(2026, 3, 10, 0, 0, 20, 0, time.UTC)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, beforeMidnight))
	require.NoError(t, err)

	// The cooldown is a property of the identity, not of the day.
	result, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, afterMidnight))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCooldown, result.Outcome)
	assert.Equal(t, 1, fix.presenceRepo.count())
}

func TestRecordDetection_RestartSeedsCooldownFromStore(t *testing.T) {
	identityRepo := newFakeIdentityRepo(activeIdentity("EMP-001", "Alice", "Engineering"))
	presenceRepo := newFakePresenceRepo()
	sessionRepo := &fakeSessionRepo{}

	opts := LedgerOptions{ConfidenceThreshold: 0.5, Cooldown: 30 * time.Second, Timezone: time.UTC}

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	first := NewLedgerService(identityRepo, presenceRepo, sessionRepo, cache.NewReadCache(time.Minute), nil, opts)
	_, err := first.RecordDetection(context.Background(), detectionAt("EMP-001", 0.9, at))
	require.NoError(t, err)

	// Fresh service instance over the same store simulates a process restart:
	// the in-memory deduplicator is cold but the day's last_seen survives.
	restarted := NewLedgerService(identityRepo, presenceRepo, sessionRepo, cache.NewReadCache(time.Minute), nil, opts)
	result, err := restarted.RecordDetection(context.Background(), detectionAt("EMP-001", 0.9, at.Add(10*time.Second)))

	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCooldown, result.Outcome)
	assert.Equal(t, 1, presenceRepo.count())
}

func TestGetDailyStatistics(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	},
		activeIdentity("EMP-001", "Alice", "Engineering"),
		activeIdentity("EMP-002", "Bob", "Engineering"),
		activeIdentity("EMP-003", "Carol", "Sales"),
		activeIdentity("EMP-004", "Dave", ""),
	)

	ctx := context.Background()
	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at))
	require.NoError(t, err)
	_, err = fix.svc.RecordDetection(ctx, detectionAt("EMP-003", 0.9, at))
	require.NoError(t, err)

	stats, err := fix.svc.GetDailyStatistics(ctx, "2026-03-09")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalRegistered)
	assert.Equal(t, 2, stats.PresentCount)
	assert.Equal(t, 2, stats.AbsentCount)
	assert.InDelta(t, 50.0, stats.PresenceRate, 0.001)

	require.Contains(t, stats.ByDepartment, "Engineering")
	assert.Equal(t, 2, stats.ByDepartment["Engineering"].Registered)
	assert.Equal(t, 1, stats.ByDepartment["Engineering"].Present)
	assert.InDelta(t, 50.0, stats.ByDepartment["Engineering"].PresenceRate, 0.001)

	require.Contains(t, stats.ByDepartment, "Sales")
	assert.Equal(t, 1, stats.ByDepartment["Sales"].Present)

	require.Contains(t, stats.ByDepartment, "Not Specified")
	assert.Equal(t, 1, stats.ByDepartment["Not Specified"].Registered)
}

func TestGetDailyStatistics_EmptyRegistry(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{ConfidenceThreshold: 0.5, Cooldown: time.Second})

	stats, err := fix.svc.GetDailyStatistics(context.Background(), "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRegistered)
	assert.Equal(t, 0.0, stats.PresenceRate)
}

func TestGetIdentityStatistics_CacheReadAfterWrite(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            0,
		HistoryWindowDays:   30,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	now := time.Now().UTC()

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, now))
	require.NoError(t, err)

	first, err := fix.svc.GetIdentityStatistics(ctx, "EMP-001", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.PresentDays)
	assert.Len(t, first.Trend, 30)

	// Second read comes from cache.
	cached, err := fix.svc.GetIdentityStatistics(ctx, "EMP-001", 0)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// A new accepted detection invalidates synchronously; the next read must
	// reflect it.
	later := now.Add(time.Minute)
	_, err = fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.95, later))
	require.NoError(t, err)

	fresh, err := fix.svc.GetIdentityStatistics(ctx, "EMP-001", 0)
	require.NoError(t, err)
	require.NotNil(t, fresh.LastSeen)
	assert.False(t, fresh.LastSeen.Before(later), "stats after accept must include the new detection")
	assert.Equal(t, int64(2), fresh.DetectionCount)
}

func TestGetIdentityStatistics_WindowExcludesOldSessions(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            0,
		HistoryWindowDays:   30,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, old))
	require.NoError(t, err)
	_, err = fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, now))
	require.NoError(t, err)

	stats, err := fix.svc.GetIdentityStatistics(ctx, "EMP-001", 0)
	require.NoError(t, err)

	// The 40-day-old detection and its presence day fall outside the window.
	assert.Equal(t, int64(1), stats.DetectionCount)
	assert.Equal(t, 1, stats.PresentDays)
}

func TestGetIdentityStatistics_UnknownIdentity(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{ConfidenceThreshold: 0.5, Cooldown: time.Second})

	_, err := fix.svc.GetIdentityStatistics(context.Background(), "GHOST", 0)
	assert.ErrorIs(t, err, services.ErrUnknownIdentity)
}

func TestExportRange(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            time.Second,
	},
		activeIdentity("EMP-001", "Alice", "Engineering"),
		activeIdentity("EMP-002", "Bob", "Sales"),
	)

	ctx := context.Background()
	day1 := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, day1))
	require.NoError(t, err)
	_, err = fix.svc.RecordDetection(ctx, detectionAt("EMP-002", 0.8, day1))
	require.NoError(t, err)
	_, err = fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.85, day2))
	require.NoError(t, err)

	rows, err := fix.svc.ExportRange(ctx, "2026-03-09", "2026-03-10", "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordering is day then identity code regardless of how the store
	// returns rows; the fake iterates a map, so any leak of store order
	// would flip these.
	assert.Equal(t, "2026-03-09", rows[0].Day)
	assert.Equal(t, "EMP-001", rows[0].IdentityCode)
	assert.Equal(t, "2026-03-09", rows[1].Day)
	assert.Equal(t, "EMP-002", rows[1].IdentityCode)
	assert.Equal(t, "2026-03-10", rows[2].Day)
	assert.Equal(t, "EMP-001", rows[2].IdentityCode)

	for _, row := range rows {
		assert.NotEmpty(t, row.Name, "export rows carry the identity name")
		assert.Equal(t, "present", row.Status)
	}

	// Only day one.
	rows, err = fix.svc.ExportRange(ctx, "2026-03-09", "2026-03-09", "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = fix.svc.ExportRange(ctx, "2026-03-10", "2026-03-09", "")
	assert.Error(t, err, "inverted range is rejected")
}

func TestResetDay(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            time.Hour,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at))
	require.NoError(t, err)
	require.Equal(t, 1, fix.presenceRepo.count())

	deleted, err := fix.svc.ResetDay(ctx, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 0, fix.presenceRepo.count())

	// Audit sessions survive the reset.
	assert.Equal(t, 1, fix.sessionRepo.count())

	// Deduplicator state is cleared too: the same event is accepted again even
	// inside the old cooldown window.
	result, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAccepted, result.Outcome)
	assert.True(t, result.MarkedPresent)
}

func TestRecentDetections(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            0,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	ctx := context.Background()
	base := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	detections, err := fix.svc.RecentDetections(ctx, 3)
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, "Alice", detections[0].Name)
	assert.Equal(t, base.Add(4*time.Minute), detections[0].DetectedAt, "newest first")
}

func TestDay_UsesConfiguredTimezone(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            time.Second,
		Timezone:            bangkok,
	})

	// 18:30 UTC on March 9 is already March 10 in Bangkok (UTC+7).
	utcEvening := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-10", fix.svc.Day(utcEvening))
}

func TestRecordDetection_ContextCancelledDuringRetry(t *testing.T) {
	fix := newLedgerFixture(t, LedgerOptions{
		ConfidenceThreshold: 0.5,
		Cooldown:            30 * time.Second,
	}, activeIdentity("EMP-001", "Alice", "Engineering"))

	fix.presenceRepo.failUpserts = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	at := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	_, err := fix.svc.RecordDetection(ctx, detectionAt("EMP-001", 0.9, at))

	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrStoreUnavailable) || errors.Is(err, context.Canceled))
}
