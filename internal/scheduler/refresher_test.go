package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"warzone-tracker/internal/domain"
)

type fakeProfileSource struct {
	profiles []domain.PlayerProfile
	err      error
}

func (f *fakeProfileSource) ListStale(context.Context, time.Duration) ([]domain.PlayerProfile, error) {
	return f.profiles, f.err
}

type fakeProfileRefresher struct {
	mu      sync.Mutex
	seen    []string
	failFor map[string]error
}

func (f *fakeProfileRefresher) Refresh(_ context.Context, p *domain.PlayerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, p.ID)
	return f.failFor[p.ID]
}

type fakeSquadSource struct {
	squads []domain.SquadAggregate
}

func (f *fakeSquadSource) ListStale(context.Context, time.Duration) ([]domain.SquadAggregate, error) {
	return f.squads, nil
}

type fakeSquadRefresher struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeSquadRefresher) Refresh(_ context.Context, s *domain.SquadAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, s.ID)
	return nil
}

type fakeMatchCleaner struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeMatchCleaner) DeleteStale(context.Context, time.Duration) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func newTestRefresher(ps ProfileSource, pr ProfileRefresher, ss SquadSource, sr SquadRefresher, mc MatchCleaner) *Refresher {
	return New(ps, pr, ss, sr, mc, zerolog.Nop())
}

func TestSweepProfilesRefreshesEveryStaleProfile(t *testing.T) {
	t.Parallel()

	source := &fakeProfileSource{profiles: []domain.PlayerProfile{
		{ID: "p1"}, {ID: "p2"}, {ID: "p3"},
	}}
	refresher := &fakeProfileRefresher{}

	r := newTestRefresher(source, refresher, &fakeSquadSource{}, &fakeSquadRefresher{}, &fakeMatchCleaner{})
	r.SweepProfiles(context.Background())

	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, refresher.seen)
}

func TestSweepProfilesOneFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	source := &fakeProfileSource{profiles: []domain.PlayerProfile{
		{ID: "p1"}, {ID: "p2"}, {ID: "p3"},
	}}
	refresher := &fakeProfileRefresher{failFor: map[string]error{
		"p2": errors.New("upstream down"),
	}}

	r := newTestRefresher(source, refresher, &fakeSquadSource{}, &fakeSquadRefresher{}, &fakeMatchCleaner{})
	r.SweepProfiles(context.Background())

	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, refresher.seen)
}

func TestSweepProfilesListFailureSkipsSweep(t *testing.T) {
	t.Parallel()

	source := &fakeProfileSource{err: errors.New("database down")}
	refresher := &fakeProfileRefresher{}

	r := newTestRefresher(source, refresher, &fakeSquadSource{}, &fakeSquadRefresher{}, &fakeMatchCleaner{})
	r.SweepProfiles(context.Background())

	assert.Empty(t, refresher.seen)
}

func TestSweepSquadsRefreshesEveryStaleSquad(t *testing.T) {
	t.Parallel()

	source := &fakeSquadSource{squads: []domain.SquadAggregate{
		{ID: "s1"}, {ID: "s2"},
	}}
	refresher := &fakeSquadRefresher{}

	r := newTestRefresher(&fakeProfileSource{}, &fakeProfileRefresher{}, source, refresher, &fakeMatchCleaner{})
	r.SweepSquads(context.Background())

	assert.ElementsMatch(t, []string{"s1", "s2"}, refresher.seen)
}

func TestCleanupMatches(t *testing.T) {
	t.Parallel()

	cleaner := &fakeMatchCleaner{deleted: 7}

	r := newTestRefresher(&fakeProfileSource{}, &fakeProfileRefresher{}, &fakeSquadSource{}, &fakeSquadRefresher{}, cleaner)
	r.CleanupMatches(context.Background())

	assert.Equal(t, 1, cleaner.calls)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	r := newTestRefresher(&fakeProfileSource{}, &fakeProfileRefresher{}, &fakeSquadSource{}, &fakeSquadRefresher{}, &fakeMatchCleaner{})
	r.Start()
	r.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	r := newTestRefresher(&fakeProfileSource{}, &fakeProfileRefresher{}, &fakeSquadSource{}, &fakeSquadRefresher{}, &fakeMatchCleaner{})
	r.Stop()
}
