package playerclient

import (
	"encoding/json"
	"fmt"
)

// DeviceError is returned when a player cannot be reached or answers with
// an error status. StatusCode is zero for connection-level failures.
type DeviceError struct {
	PlayerName   string
	URL          string
	StatusCode   int
	Kind         ErrorKind
	ResponseData json.RawMessage
}

// ErrorKind 设备错误类型
type ErrorKind int

const (
	ErrKindConnect ErrorKind = iota
	ErrKindTimeout
	ErrKindRetriesExhausted
	ErrKindHTTPStatus
)

func (e *DeviceError) Error() string {
	switch e.Kind {
	case ErrKindConnect:
		return fmt.Sprintf("Cannot connect to player %s at %s", e.PlayerName, e.URL)
	case ErrKindTimeout:
		return fmt.Sprintf("Request to player %s at %s timed out", e.PlayerName, e.URL)
	case ErrKindRetriesExhausted:
		return fmt.Sprintf("Player %s at %s returned repeated errors", e.PlayerName, e.URL)
	}
	return fmt.Sprintf("Player %s at %s returned %d", e.PlayerName, e.URL, e.StatusCode)
}

// Info is the player's /api/v2/info payload. Players of different
// versions report different field sets, so everything is optional.
type Info struct {
	Viewer          string `json:"viewer,omitempty"`
	Loadavg         any    `json:"loadavg,omitempty"`
	FreeSpace       string `json:"free_space,omitempty"`
	DisplayPower    any    `json:"display_power,omitempty"`
	UpToDate        *bool  `json:"up_to_date,omitempty"`
	AnthiasVersion  string `json:"anthias_version,omitempty"`
	DeviceModel     string `json:"device_model,omitempty"`
	Uptime          any    `json:"uptime,omitempty"`
	MacAddress      string `json:"mac_address,omitempty"`
	HostUserVersion string `json:"host_user_version,omitempty"`
}

// Asset mirrors the player's asset resource.
type Asset struct {
	AssetID        string `json:"asset_id"`
	Name           string `json:"name"`
	URI            string `json:"uri"`
	Mimetype       string `json:"mimetype"`
	IsEnabled      any    `json:"is_enabled"`
	IsActive       any    `json:"is_active"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Duration       any    `json:"duration"`
	PlayOrder      int    `json:"play_order"`
	SkipAssetCheck any    `json:"skip_asset_check,omitempty"`
}

// ViewlogEntry is one playback event reported by a player.
type ViewlogEntry struct {
	AssetID   string `json:"asset_id"`
	AssetName string `json:"asset_name"`
	Mimetype  string `json:"mimetype"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

// ScheduleSlot mirrors the player's schedule slot resource.
type ScheduleSlot struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	StartTime  string   `json:"start_time,omitempty"`
	EndTime    string   `json:"end_time,omitempty"`
	DaysOfWeek []string `json:"days_of_week,omitempty"`
	IsDefault  bool     `json:"is_default"`
	Priority   int      `json:"priority"`
}

// SlotItem is one asset placed inside a schedule slot.
type SlotItem struct {
	ID       int    `json:"id"`
	AssetID  string `json:"asset_id"`
	Position int    `json:"position"`
}
