package playback

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"go_fleet/internal/model"
)

// GormLogSource reads collected playback entries from the database.
type GormLogSource struct {
	db *gorm.DB
}

// NewGormLogSource creates a LogSource backed by the given database.
func NewGormLogSource(db *gorm.DB) *GormLogSource {
	return &GormLogSource{db: db}
}

// FetchPlaybackLogs returns one page of entries, newest first, plus the
// total count for the filters.
func (s *GormLogSource) FetchPlaybackLogs(ctx context.Context, p Params) ([]model.PlaybackLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.PlaybackLog{})
	if p.PlayerID != "" {
		query = query.Where("player_id = ?", p.PlayerID)
	}
	if p.From != nil {
		query = query.Where("timestamp >= ?", *p.From)
	}
	if p.To != nil {
		query = query.Where("timestamp <= ?", *p.To)
	}
	if p.Content != "" {
		query = query.Where("asset_name LIKE ?", "%"+p.Content+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count playback logs: %w", err)
	}

	var entries []model.PlaybackLog
	err := query.Order("timestamp DESC, id DESC").
		Offset((p.Page - 1) * p.PageSize).
		Limit(p.PageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetch playback logs: %w", err)
	}
	return entries, total, nil
}
