package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"go_fleet/internal/model"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type fakeLogSource struct {
	entries []model.PlaybackLog
	total   int64
	err     error
	fetches int
	last    Params
}

func (f *fakeLogSource) FetchPlaybackLogs(ctx context.Context, p Params) ([]model.PlaybackLog, int64, error) {
	f.fetches++
	f.last = p
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.entries, f.total, nil
}

func TestQuery_DraftEditsDoNotFetch(t *testing.T) {
	source := &fakeLogSource{}
	q := NewQuery(source, 50, testLogger())

	q.SetPlayerFilter("player-1")
	q.SetDateFrom("2026-08-01")
	q.SetDateTo("2026-08-15")

	if source.fetches != 0 {
		t.Errorf("Expected 0 fetches for draft edits, got %d", source.fetches)
	}
	if q.Applied() != (AppliedFilters{}) {
		t.Errorf("Expected empty applied filters, got %+v", q.Applied())
	}
}

func TestQuery_ApplySnapshotsAndFetchesOnce(t *testing.T) {
	source := &fakeLogSource{total: 120}
	q := NewQuery(source, 50, testLogger())

	q.SetPlayerFilter("player-1")
	q.SetDateFrom("2026-08-01")
	q.SetDateTo("2026-08-15")
	q.SetPage(context.Background(), 1) // fetch empty baseline
	source.fetches = 0

	q.Apply(context.Background())

	if source.fetches != 1 {
		t.Fatalf("Expected 1 fetch on apply, got %d", source.fetches)
	}
	if q.Page() != 1 {
		t.Errorf("Expected apply to reset to page 1, got %d", q.Page())
	}

	applied := q.Applied()
	if applied.PlayerID != "player-1" {
		t.Errorf("Expected player filter, got %q", applied.PlayerID)
	}
	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if applied.From == nil || !applied.From.Equal(wantFrom) {
		t.Errorf("Expected from %v, got %v", wantFrom, applied.From)
	}
	if applied.To == nil || applied.To.Before(time.Date(2026, 8, 15, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("Expected to cover end of Aug 15, got %v", applied.To)
	}
	if applied.To.After(time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected to stay within Aug 15, got %v", applied.To)
	}
}

func TestQuery_ApplyIgnoresBadDates(t *testing.T) {
	source := &fakeLogSource{}
	q := NewQuery(source, 50, testLogger())

	q.SetDateFrom("not-a-date")
	q.Apply(context.Background())

	if q.Applied().From != nil {
		t.Errorf("Expected nil from for bad date, got %v", q.Applied().From)
	}
}

func TestQuery_PageClamping(t *testing.T) {
	source := &fakeLogSource{total: 120} // 3 pages of 50
	q := NewQuery(source, 50, testLogger())
	q.Apply(context.Background())

	q.SetPage(context.Background(), 99)
	if q.Page() != 3 {
		t.Errorf("Expected clamp to page 3, got %d", q.Page())
	}
	q.NextPage(context.Background())
	if q.Page() != 3 {
		t.Errorf("Expected next on last page to stay, got %d", q.Page())
	}
	q.SetPage(context.Background(), -5)
	if q.Page() != 1 {
		t.Errorf("Expected clamp to page 1, got %d", q.Page())
	}
	q.PrevPage(context.Background())
	if q.Page() != 1 {
		t.Errorf("Expected prev on first page to stay, got %d", q.Page())
	}
}

func TestQuery_ContentFilter(t *testing.T) {
	source := &fakeLogSource{}
	q := NewQuery(source, 50, testLogger())

	q.SetContentFilter("promo")
	if source.fetches != 0 {
		t.Fatalf("Expected draft content edit not to fetch, got %d", source.fetches)
	}

	q.Apply(context.Background())
	if source.last.Content != "promo" {
		t.Errorf("Expected applied content filter, got %q", source.last.Content)
	}
}

func TestQuery_PageMovesKeepAppliedFilters(t *testing.T) {
	source := &fakeLogSource{total: 120}
	q := NewQuery(source, 50, testLogger())

	q.SetPlayerFilter("player-1")
	q.Apply(context.Background())

	// Edit the draft but do not apply; page moves must use the old snapshot.
	q.SetPlayerFilter("player-2")
	q.NextPage(context.Background())

	if source.last.PlayerID != "player-1" {
		t.Errorf("Expected page move with applied filter player-1, got %q", source.last.PlayerID)
	}
	if source.last.Page != 2 {
		t.Errorf("Expected page 2, got %d", source.last.Page)
	}
}

func TestQuery_FetchFailureClearsPage(t *testing.T) {
	source := &fakeLogSource{
		entries: []model.PlaybackLog{{ID: 1, AssetName: "promo.mp4"}},
		total:   1,
	}
	q := NewQuery(source, 50, testLogger())
	q.Apply(context.Background())
	if len(q.Entries()) != 1 || q.Total() != 1 {
		t.Fatalf("Expected one entry before failure, got %d/%d", len(q.Entries()), q.Total())
	}

	source.err = errors.New("dial tcp: connection refused")
	q.Refresh(context.Background())

	if q.Entries() != nil {
		t.Errorf("Expected entries cleared after failed fetch, got %v", q.Entries())
	}
	if q.Total() != 0 {
		t.Errorf("Expected total 0 after failed fetch, got %d", q.Total())
	}
}

func TestTracking_EarliestWins(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	day9 := time.Date(2026, 8, 9, 9, 0, 0, 0, time.UTC)
	players := []model.Player{
		{UUIDModel: model.UUIDModel{ID: "a"}, HistoryTrackingSince: &day9},
		{UUIDModel: model.UUIDModel{ID: "b"}, HistoryTrackingSince: &day1},
		{UUIDModel: model.UUIDModel{ID: "c"}},
	}

	s := Tracking(players, "")
	if s.TrackedPlayers != 2 {
		t.Errorf("Expected 2 tracked players, got %d", s.TrackedPlayers)
	}
	if s.Since == nil || !s.Since.Equal(day1) {
		t.Errorf("Expected since %v, got %v", day1, s.Since)
	}
}

func TestTracking_InstantOrderingNotLexicographic(t *testing.T) {
	// 2026-08-09T23:00Z is earlier than 2026-08-10T01:00+03:00 as an
	// instant even though its formatted form sorts after it.
	earlier := time.Date(2026, 8, 9, 23, 0, 0, 0, time.UTC)
	later := time.Date(2026, 8, 10, 1, 0, 0, 0, time.FixedZone("EEST", 3*3600))
	if !later.Before(earlier) {
		t.Fatal("Fixture broken: offset time should be the earlier instant")
	}
	players := []model.Player{
		{UUIDModel: model.UUIDModel{ID: "a"}, HistoryTrackingSince: &earlier},
		{UUIDModel: model.UUIDModel{ID: "b"}, HistoryTrackingSince: &later},
	}
	s := Tracking(players, "")
	if s.Since == nil || !s.Since.Equal(later) {
		t.Errorf("Expected the offset instant to win, got %v", s.Since)
	}
}

func TestTracking_PlayerFilter(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	players := []model.Player{
		{UUIDModel: model.UUIDModel{ID: "tracked"}, HistoryTrackingSince: &day1},
		{UUIDModel: model.UUIDModel{ID: "untracked"}},
	}

	s := Tracking(players, "untracked")
	if s.TrackedPlayers != 0 || s.Since != nil {
		t.Errorf("Expected empty summary for untracked player, got %+v", s)
	}

	s = Tracking(players, "tracked")
	if s.TrackedPlayers != 1 || s.Since == nil || !s.Since.Equal(day1) {
		t.Errorf("Expected single-player summary, got %+v", s)
	}
}

func TestTrackingInfo_OnlyTrackedPlayers(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	players := []model.Player{
		{UUIDModel: model.UUIDModel{ID: "a"}, Name: "Lobby", HistoryTrackingSince: &day1},
		{UUIDModel: model.UUIDModel{ID: "b"}, Name: "Cafe"},
	}

	info := TrackingInfo(players, "")
	if len(info) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(info))
	}
	entry, ok := info["a"]
	if !ok {
		t.Fatal("Expected entry keyed by player id")
	}
	if entry.Name != "Lobby" || entry.TrackingSince == nil || !entry.TrackingSince.Equal(day1) {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestTrackingInfo_PlayerFilterIncludesUntracked(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	players := []model.Player{
		{UUIDModel: model.UUIDModel{ID: "tracked"}, Name: "Lobby", HistoryTrackingSince: &day1},
		{UUIDModel: model.UUIDModel{ID: "untracked"}, Name: "Cafe"},
	}

	info := TrackingInfo(players, "untracked")
	if len(info) != 1 {
		t.Fatalf("Expected the filtered player only, got %d entries", len(info))
	}
	entry := info["untracked"]
	if entry.Name != "Cafe" || entry.TrackingSince != nil {
		t.Errorf("Expected untracked entry with nil since, got %+v", entry)
	}

	info = TrackingInfo(players, "tracked")
	if len(info) != 1 || info["tracked"].TrackingSince == nil {
		t.Errorf("Expected tracked entry, got %+v", info)
	}
}

func TestTracking_NoPlayers(t *testing.T) {
	s := Tracking(nil, "")
	if s.TrackedPlayers != 0 || s.Since != nil {
		t.Errorf("Expected empty summary, got %+v", s)
	}
}
