// Package playback serves the playback history screen: filtered,
// paginated queries over collected playback log entries plus the
// tracking summary shown above the table.
package playback

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go_fleet/internal/model"
)

// DefaultPageSize matches the history table's page length.
const DefaultPageSize = 50

// Filters is the draft filter set edited by the user. Dates are calendar
// days in "2006-01-02" form; empty fields mean no constraint. Content
// matches against asset names.
type Filters struct {
	PlayerID string
	DateFrom string
	DateTo   string
	Content  string
}

// AppliedFilters is the snapshot of Filters converted to query terms.
// From is the start of DateFrom's day in UTC, To the end of DateTo's.
type AppliedFilters struct {
	PlayerID string
	From     *time.Time
	To       *time.Time
	Content  string
}

// Params is one page request against a log source.
type Params struct {
	AppliedFilters
	Page     int
	PageSize int
}

// LogSource fetches one page of playback entries matching the params and
// the total match count.
type LogSource interface {
	FetchPlaybackLogs(ctx context.Context, p Params) ([]model.PlaybackLog, int64, error)
}

// Query drives the playback history view. Draft filter edits are
// buffered and only take effect on Apply, which also resets to the first
// page. Page moves re-fetch with the applied filters unchanged. A failed
// fetch clears the current page rather than surfacing an error to the
// table.
//
// Query is not safe for concurrent use; each session holds its own.
type Query struct {
	source   LogSource
	logger   *logrus.Entry
	draft    Filters
	applied  AppliedFilters
	page     int
	pageSize int
	entries  []model.PlaybackLog
	total    int64
}

// NewQuery creates a Query with empty filters on page 1.
func NewQuery(source LogSource, pageSize int, logger *logrus.Entry) *Query {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Query{
		source:   source,
		logger:   logger.WithField("component", "playback-query"),
		page:     1,
		pageSize: pageSize,
	}
}

// Draft returns the current draft filters.
func (q *Query) Draft() Filters { return q.draft }

// Applied returns the filters currently in effect.
func (q *Query) Applied() AppliedFilters { return q.applied }

// Entries returns the current page.
func (q *Query) Entries() []model.PlaybackLog { return q.entries }

// Total returns the number of entries matching the applied filters.
func (q *Query) Total() int64 { return q.total }

// Page returns the current page number, 1-based.
func (q *Query) Page() int { return q.page }

// PageSize returns the page length.
func (q *Query) PageSize() int { return q.pageSize }

// SetPlayerFilter edits the draft player filter. No fetch happens until
// Apply.
func (q *Query) SetPlayerFilter(playerID string) { q.draft.PlayerID = playerID }

// SetDateFrom edits the draft lower date bound ("2006-01-02" or empty).
func (q *Query) SetDateFrom(date string) { q.draft.DateFrom = date }

// SetDateTo edits the draft upper date bound ("2006-01-02" or empty).
func (q *Query) SetDateTo(date string) { q.draft.DateTo = date }

// SetContentFilter edits the draft asset-name filter.
func (q *Query) SetContentFilter(content string) { q.draft.Content = content }

// Apply snapshots the draft filters, resets to page 1 and fetches once.
// Unparseable dates are treated as absent.
func (q *Query) Apply(ctx context.Context) {
	q.applied = ApplyFilters(q.draft)
	q.page = 1
	q.fetch(ctx)
}

// ApplyFilters converts draft filters to query terms. DateFrom maps to
// the start of that day in UTC, DateTo to the end of its day.
func ApplyFilters(f Filters) AppliedFilters {
	return AppliedFilters{
		PlayerID: f.PlayerID,
		From:     dayStart(f.DateFrom),
		To:       dayEnd(f.DateTo),
		Content:  f.Content,
	}
}

// SetPage moves to the given page and fetches. Pages below 1 clamp to 1;
// pages past the last clamp to the last.
func (q *Query) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	if last := q.lastPage(); page > last {
		page = last
	}
	q.page = page
	q.fetch(ctx)
}

// NextPage advances one page; it is a no-op on the last page.
func (q *Query) NextPage(ctx context.Context) {
	if q.page >= q.lastPage() {
		return
	}
	q.page++
	q.fetch(ctx)
}

// PrevPage goes back one page; it is a no-op on the first page.
func (q *Query) PrevPage(ctx context.Context) {
	if q.page <= 1 {
		return
	}
	q.page--
	q.fetch(ctx)
}

// Refresh re-fetches the current page with the applied filters.
func (q *Query) Refresh(ctx context.Context) {
	q.fetch(ctx)
}

func (q *Query) lastPage() int {
	if q.total == 0 {
		return 1
	}
	return int((q.total + int64(q.pageSize) - 1) / int64(q.pageSize))
}

func (q *Query) fetch(ctx context.Context) {
	entries, total, err := q.source.FetchPlaybackLogs(ctx, Params{
		AppliedFilters: q.applied,
		Page:           q.page,
		PageSize:       q.pageSize,
	})
	if err != nil {
		q.logger.Warnf("Fetch failed: %v", err)
		q.entries = nil
		q.total = 0
		return
	}
	q.entries = entries
	q.total = total
}

func dayStart(date string) *time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil
	}
	return &d
}

func dayEnd(date string) *time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil
	}
	end := d.Add(24*time.Hour - time.Nanosecond)
	return &end
}
