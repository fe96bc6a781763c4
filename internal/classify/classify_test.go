package classify

import (
	"reflect"
	"testing"
)

func TestClassify_ExactRules(t *testing.T) {
	cases := []struct {
		raw string
		key string
	}{
		{"Slot not found", KeySlotNotFound},
		{"Asset not found", KeyAssetNotFound},
		{"Asset already exists in slot", KeyAssetAlreadyInSlot},
		{"Item not found", KeyItemNotFound},
		{"A default slot already exists", KeyDuplicateDefaultSlot},
		{"start_time and end_time cannot be identical", KeyIdenticalTimeRange},
	}
	for _, c := range cases {
		got := Classify(c.raw)
		if got.Key != c.key {
			t.Errorf("Classify(%q): expected key %q, got %q", c.raw, c.key, got.Key)
		}
		if len(got.Params) != 0 {
			t.Errorf("Classify(%q): expected empty params, got %v", c.raw, got.Params)
		}
		if got.Message != "" {
			t.Errorf("Classify(%q): expected empty message, got %q", c.raw, got.Message)
		}
	}
}

func TestClassify_PatternRules(t *testing.T) {
	cases := []struct {
		raw string
		key string
	}{
		{"days_of_week must be a non-empty list", KeyInvalidDaysOfWeek},
		{"start_time and end_time are required for non-default slots", KeyMissingTimeRange},
		{"Slot overlaps with an existing slot for monday", KeyTimeRangeOverlap},
		{"Player lobby at http://10.0.0.4 returned repeated errors", KeyRepeatedDeviceErrors},
		{"Cannot connect to player lobby at http://10.0.0.4", KeyNetworkError},
		{"Request to player lobby at http://10.0.0.4 timed out", KeyNetworkError},
		{"Backup failed: no space left on device", KeyBackupFailed},
		{"Screenshot failed: device busy", KeyScreenshotFailed},
		{"Upload failed: connection reset", KeyUploadFailed},
	}
	for _, c := range cases {
		got := Classify(c.raw)
		if got.Key != c.key {
			t.Errorf("Classify(%q): expected key %q, got %q", c.raw, c.key, got.Key)
		}
	}
}

func TestClassify_HTTPError(t *testing.T) {
	got := Classify("HTTP 503")
	if got.Key != KeyHTTPError {
		t.Fatalf("Expected key %q, got %q", KeyHTTPError, got.Key)
	}
	if !reflect.DeepEqual(got.Params, map[string]string{"code": "503"}) {
		t.Errorf("Expected code 503, got %v", got.Params)
	}

	got = Classify("Player lobby at http://10.0.0.4 returned 502")
	if got.Key != KeyHTTPError {
		t.Fatalf("Expected key %q, got %q", KeyHTTPError, got.Key)
	}
	if got.Params["code"] != "502" {
		t.Errorf("Expected code 502, got %v", got.Params)
	}
}

func TestClassify_HTTPErrorMalformedCode(t *testing.T) {
	// A truncated message must still classify with a safe default code.
	got := Classify("HTTP ")
	if got.Key != KeyHTTPError {
		t.Fatalf("Expected key %q, got %q", KeyHTTPError, got.Key)
	}
	if got.Params["code"] != "0" {
		t.Errorf("Expected default code 0, got %v", got.Params)
	}
}

func TestClassify_InvalidDayParam(t *testing.T) {
	got := Classify("Invalid day: funday")
	if got.Key != KeyInvalidDay {
		t.Fatalf("Expected key %q, got %q", KeyInvalidDay, got.Key)
	}
	if got.Params["day"] != "funday" {
		t.Errorf("Expected day funday, got %v", got.Params)
	}
}

func TestClassify_RuleOrder(t *testing.T) {
	// Repeated-errors messages end with no status code but mention the
	// player; they must not fall through to the network or HTTP rules.
	got := Classify("Player lobby at http://10.0.0.4 returned repeated errors")
	if got.Key != KeyRepeatedDeviceErrors {
		t.Errorf("Expected key %q, got %q", KeyRepeatedDeviceErrors, got.Key)
	}
}

func TestClassify_Unclassified(t *testing.T) {
	raw := "something nobody has ever seen"
	got := Classify(raw)
	if got.Key != KeyUnclassified {
		t.Fatalf("Expected key %q, got %q", KeyUnclassified, got.Key)
	}
	if got.Message != raw {
		t.Errorf("Expected passthrough message %q, got %q", raw, got.Message)
	}
}

func TestClassify_Empty(t *testing.T) {
	got := Classify("")
	if got.Key != KeyGenericFailure {
		t.Errorf("Expected key %q, got %q", KeyGenericFailure, got.Key)
	}
}

func TestClassify_CompoundFieldErrors(t *testing.T) {
	raw := "slot: Slot not found; color: must be a hex value"
	got := Classify(raw)
	if got.Key != KeyUnclassified {
		t.Fatalf("Expected key %q, got %q", KeyUnclassified, got.Key)
	}
	want := "Schedule slot not found; color: must be a hex value"
	if got.Message != want {
		t.Errorf("Expected %q, got %q", want, got.Message)
	}
}

func TestClassify_CompoundFullyUnmatched(t *testing.T) {
	// When no segment matches, the rejoined message equals the original.
	raw := "name: required; color: must be a hex value"
	got := Classify(raw)
	if got.Message != raw {
		t.Errorf("Expected %q, got %q", raw, got.Message)
	}
}

func TestCategory_Text(t *testing.T) {
	cases := []struct {
		cat  Category
		want string
	}{
		{Category{Key: KeyNetworkError}, "Network error"},
		{Category{Key: KeyHTTPError, Params: map[string]string{"code": "503"}}, "HTTP error 503"},
		{Category{Key: KeyHTTPError, Params: map[string]string{"code": "0"}}, "HTTP error"},
		{Category{Key: KeyInvalidDay, Params: map[string]string{"day": "funday"}}, "Invalid day: funday"},
		{Category{Key: KeyUnclassified, Message: "raw text"}, "raw text"},
		{Category{Key: KeyGenericFailure}, "Operation failed"},
	}
	for _, c := range cases {
		if got := c.cat.Text(); got != c.want {
			t.Errorf("Text(%q): expected %q, got %q", c.cat.Key, c.want, got)
		}
	}
}
