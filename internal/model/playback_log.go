package model

import "time"

// PlaybackEvent represents a playback log event kind
type PlaybackEvent string

const (
	PlaybackEventStarted PlaybackEvent = "started"
	PlaybackEventStopped PlaybackEvent = "stopped"
)

// PlaybackLog records one asset playback event observed on a player
type PlaybackLog struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  string        `gorm:"type:char(36);not null;index:idx_player_ts,priority:1;uniqueIndex:uk_playback_entry,priority:1" json:"player_id"`
	Player    *Player       `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"player,omitempty"`
	AssetID   string        `gorm:"type:varchar(100);not null;uniqueIndex:uk_playback_entry,priority:2" json:"asset_id"`
	AssetName string        `gorm:"type:varchar(200);not null;index" json:"asset_name"`
	Mimetype  string        `gorm:"type:varchar(50)" json:"mimetype"`
	Event     PlaybackEvent `gorm:"type:enum('started','stopped');default:'started';uniqueIndex:uk_playback_entry,priority:4" json:"event"`
	Timestamp time.Time     `gorm:"not null;index:idx_player_ts,priority:2;index;uniqueIndex:uk_playback_entry,priority:3" json:"timestamp"`
}

// TableName specifies the table name for PlaybackLog model
func (PlaybackLog) TableName() string {
	return "playback_logs"
}
