package playback

import (
	"time"

	"go_fleet/internal/model"
)

// TrackingSummary describes how far back collected playback history
// reaches. Since is nil when no player has tracking yet.
type TrackingSummary struct {
	TrackedPlayers int        `json:"trackedPlayers"`
	Since          *time.Time `json:"since,omitempty"`
}

// PlayerTracking is one player's history coverage entry.
type PlayerTracking struct {
	Name          string     `json:"name"`
	TrackingSince *time.Time `json:"trackingSince"`
}

// TrackingInfo builds the per-player coverage map the log view renders.
// With a player filter only that player appears, tracked or not;
// otherwise every tracked player does.
func TrackingInfo(players []model.Player, playerID string) map[string]PlayerTracking {
	info := make(map[string]PlayerTracking)
	for i := range players {
		p := &players[i]
		if playerID != "" {
			if p.ID == playerID {
				info[p.ID] = PlayerTracking{Name: p.Name, TrackingSince: p.HistoryTrackingSince}
			}
			continue
		}
		if p.HistoryTrackingSince != nil {
			info[p.ID] = PlayerTracking{Name: p.Name, TrackingSince: p.HistoryTrackingSince}
		}
	}
	return info
}

// Tracking computes the summary for the given players. When playerID is
// set, only that player counts. The earliest start wins; instants are
// compared as times, so mixed offsets order correctly.
func Tracking(players []model.Player, playerID string) TrackingSummary {
	var s TrackingSummary
	for i := range players {
		p := &players[i]
		if playerID != "" && p.ID != playerID {
			continue
		}
		if p.HistoryTrackingSince == nil {
			continue
		}
		s.TrackedPlayers++
		if s.Since == nil || p.HistoryTrackingSince.Before(*s.Since) {
			t := *p.HistoryTrackingSince
			s.Since = &t
		}
	}
	return s
}
