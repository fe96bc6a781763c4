// Package deploy tracks the progress of deploy tasks pushed to players.
// Task rows are written by the deploy executor; this package reads them,
// aggregates per-player outcomes and polls running tasks until a terminal
// state is reached.
package deploy

import (
	"math"

	"go_fleet/internal/model"
)

// Summary is the aggregated view of a task's per-player progress.
type Summary struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Failed         int `json:"failed"`
	Percent        int `json:"percent"`
	SuccessPercent int `json:"successPercent"`
	FailurePercent int `json:"failurePercent"`
}

// Aggregate computes counts and percentages from per-player progress.
// Percentages round half away from zero. An empty map yields all zeros.
func Aggregate(progress map[string]model.TargetProgress) Summary {
	s := Summary{Total: len(progress)}
	if s.Total == 0 {
		return s
	}

	for _, p := range progress {
		switch p.Status {
		case model.TargetStatusSuccess:
			s.Completed++
		case model.TargetStatusError, model.TargetStatusFailed:
			s.Failed++
		}
	}

	s.Percent = percent(s.Completed+s.Failed, s.Total)
	s.SuccessPercent = percent(s.Completed, s.Total)
	// FailurePercent takes the remainder of Percent so the two can never
	// sum past the overall progress even when both would round up.
	s.FailurePercent = s.Percent - s.SuccessPercent
	return s
}

func percent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
