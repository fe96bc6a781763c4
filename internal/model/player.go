package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DeviceType represents detected player hardware
type DeviceType string

const (
	DeviceTypePi4     DeviceType = "pi4"
	DeviceTypePi5     DeviceType = "pi5"
	DeviceTypeUnknown DeviceType = "unknown"
)

// Player represents a remote signage device
type Player struct {
	UUIDModel
	Name       string     `gorm:"type:varchar(200);not null" json:"name"`
	URL        string     `gorm:"type:varchar(500);uniqueIndex;not null" json:"url"`
	Username   string     `gorm:"type:varchar(100)" json:"username"`
	Password   string     `gorm:"type:varchar(500)" json:"-"` // stored encrypted
	DeviceType DeviceType `gorm:"type:enum('pi4','pi5','unknown');default:'unknown'" json:"device_type"`
	GroupID    *string    `gorm:"type:char(36);index" json:"group_id"`
	Group      *Group     `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	MacAddress string     `gorm:"type:varchar(17);index" json:"mac_address"`

	IsOnline       bool           `gorm:"default:0" json:"is_online"`
	LastSeen       *time.Time     `json:"last_seen"`
	LastStatus     datatypes.JSON `gorm:"type:json" json:"last_status"`
	StatusFailures int            `gorm:"default:0" json:"-"`

	// Playback tracking state, maintained by the collector worker.
	ActiveAssetsCache    datatypes.JSON `gorm:"type:json" json:"-"`
	HistoryTrackingSince *time.Time     `json:"history_tracking_since"`
	LastViewlogFetch     *time.Time     `json:"-"`
}

// TableName specifies the table name for Player model
func (Player) TableName() string {
	return "players"
}

// APIURL returns the player base URL stripped of any trailing slash
func (p *Player) APIURL() string {
	return strings.TrimRight(p.URL, "/")
}
