package playbacklog

import (
	"context"
	"encoding/json"
	"time"

	"go_fleet/internal/cache"
	"go_fleet/internal/httpx"
	"go_fleet/internal/model"
	"go_fleet/internal/playback"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// assetNamesCacheKey caches the filter dropdown contents; the list only
// changes when the collector stores new assets.
const (
	assetNamesCacheKey = "fleet:playback:asset_names"
	assetNamesCacheTTL = 60 * time.Second
)

// ListRequest represents playback log query parameters. Dates are
// calendar days in "2006-01-02" form.
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	PlayerID string `form:"playerId"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Content  string `form:"content"`
}

// ListResponse represents the playback log page plus the sidebar data.
// TrackingInfo is keyed by player id.
type ListResponse struct {
	Results         []model.PlaybackLog                `json:"results"`
	Total           int64                              `json:"total"`
	Page            int                                `json:"page"`
	PageSize        int                                `json:"pageSize"`
	TrackingInfo    map[string]playback.PlayerTracking `json:"trackingInfo"`
	TrackingSummary playback.TrackingSummary           `json:"trackingSummary"`
	AssetNames      []string                           `json:"assetNames"`
}

// Handler handles playback log API
type Handler struct {
	db     *gorm.DB
	source playback.LogSource
	logger *logrus.Entry
}

// NewHandler creates a new playback log handler
func NewHandler(db *gorm.DB, logger *logrus.Entry) *Handler {
	return &Handler{
		db:     db,
		source: playback.NewGormLogSource(db),
		logger: logger.WithField("component", "playbacklog-handler"),
	}
}

// List handles GET /api/v1/playback-logs
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = playback.DefaultPageSize
	}

	applied := playback.ApplyFilters(playback.Filters{
		PlayerID: req.PlayerID,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Content:  req.Content,
	})

	entries, total, err := h.source.FetchPlaybackLogs(c.Request.Context(), playback.Params{
		AppliedFilters: applied,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch playback logs", err))
		return
	}
	if entries == nil {
		entries = []model.PlaybackLog{}
	}

	var players []model.Player
	if err := h.db.Find(&players).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch players", err))
		return
	}

	httpx.OK(c, ListResponse{
		Results:         entries,
		Total:           total,
		Page:            req.Page,
		PageSize:        req.PageSize,
		TrackingInfo:    playback.TrackingInfo(players, applied.PlayerID),
		TrackingSummary: playback.Tracking(players, applied.PlayerID),
		AssetNames:      h.assetNames(c.Request.Context()),
	})
}

// assetNames returns the distinct asset names seen in playback history,
// cached in Redis. Cache misses and errors fall back to the database.
func (h *Handler) assetNames(ctx context.Context) []string {
	if cache.Client != nil {
		raw, err := cache.Client.Get(ctx, assetNamesCacheKey).Bytes()
		if err == nil {
			var names []string
			if json.Unmarshal(raw, &names) == nil {
				return names
			}
		}
	}

	names := []string{}
	if err := h.db.Model(&model.PlaybackLog{}).
		Distinct("asset_name").
		Order("asset_name ASC").
		Pluck("asset_name", &names).Error; err != nil {
		h.logger.Warnf("Failed to fetch asset names: %v", err)
		return []string{}
	}

	if cache.Client != nil {
		if raw, err := json.Marshal(names); err == nil {
			if err := cache.Client.Set(ctx, assetNamesCacheKey, raw, assetNamesCacheTTL).Err(); err != nil {
				h.logger.Warnf("Failed to cache asset names: %v", err)
			}
		}
	}
	return names
}
