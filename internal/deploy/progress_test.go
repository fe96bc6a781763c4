package deploy

import (
	"testing"

	"go_fleet/internal/model"
)

func TestAggregate_Mixed(t *testing.T) {
	progress := map[string]model.TargetProgress{}
	for i := 0; i < 6; i++ {
		progress[playerID(i)] = model.TargetProgress{Status: model.TargetStatusSuccess}
	}
	progress[playerID(6)] = model.TargetProgress{Status: model.TargetStatusError, Error: "HTTP 503"}
	progress[playerID(7)] = model.TargetProgress{Status: model.TargetStatusFailed, Error: "timed out"}
	progress[playerID(8)] = model.TargetProgress{Status: model.TargetStatusRunning}
	progress[playerID(9)] = model.TargetProgress{Status: model.TargetStatusPending}

	s := Aggregate(progress)
	if s.Total != 10 || s.Completed != 6 || s.Failed != 2 {
		t.Fatalf("Expected total=10 completed=6 failed=2, got %+v", s)
	}
	if s.Percent != 80 {
		t.Errorf("Expected percent 80, got %d", s.Percent)
	}
	if s.SuccessPercent != 60 {
		t.Errorf("Expected success percent 60, got %d", s.SuccessPercent)
	}
	if s.FailurePercent != 20 {
		t.Errorf("Expected failure percent 20, got %d", s.FailurePercent)
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)
	if s != (Summary{}) {
		t.Errorf("Expected zero summary, got %+v", s)
	}
}

func TestAggregate_Rounding(t *testing.T) {
	progress := map[string]model.TargetProgress{
		playerID(0): {Status: model.TargetStatusSuccess},
		playerID(1): {Status: model.TargetStatusRunning},
		playerID(2): {Status: model.TargetStatusRunning},
	}
	s := Aggregate(progress)
	// 1/3 rounds half away from zero to 33.
	if s.Percent != 33 {
		t.Errorf("Expected percent 33, got %d", s.Percent)
	}

	progress[playerID(1)] = model.TargetProgress{Status: model.TargetStatusSuccess}
	s = Aggregate(progress)
	// 2/3 is 66.67, rounds to 67
	if s.Percent != 67 {
		t.Errorf("Expected percent 67, got %d", s.Percent)
	}
}

func TestAggregate_PercentsNeverExceedTotal(t *testing.T) {
	// 19 successes and 21 failures out of 40 both round towards each
	// other; the summed split must still equal overall progress.
	progress := map[string]model.TargetProgress{}
	for i := 0; i < 19; i++ {
		progress[playerID(i)] = model.TargetProgress{Status: model.TargetStatusSuccess}
	}
	for i := 19; i < 40; i++ {
		progress[playerID(i)] = model.TargetProgress{Status: model.TargetStatusError}
	}
	s := Aggregate(progress)
	if s.Percent != 100 {
		t.Fatalf("Expected percent 100, got %d", s.Percent)
	}
	if s.SuccessPercent+s.FailurePercent != 100 {
		t.Errorf("Expected split to sum to 100, got %d+%d", s.SuccessPercent, s.FailurePercent)
	}
}

func playerID(i int) string {
	return string(rune('a'+i/26)) + string(rune('a'+i%26))
}
