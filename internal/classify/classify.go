// Package classify normalizes the heterogeneous error strings produced by
// players and the deploy backend into a stable taxonomy for display. The
// dashboard shows category text instead of raw backend strings; anything it
// cannot recognize passes through verbatim so debuggability is preserved.
package classify

import (
	"regexp"
	"strings"
)

// Category keys
const (
	KeySlotNotFound         = "slot-not-found"
	KeyAssetNotFound        = "asset-not-found"
	KeyAssetAlreadyInSlot   = "asset-already-in-slot"
	KeyItemNotFound         = "item-not-found"
	KeyInvalidDaysOfWeek    = "invalid-days-of-week"
	KeyInvalidDay           = "invalid-day"
	KeyDuplicateDefaultSlot = "duplicate-default-slot"
	KeyMissingTimeRange     = "missing-time-range"
	KeyIdenticalTimeRange   = "identical-time-range"
	KeyTimeRangeOverlap     = "time-range-overlap"
	KeyRepeatedDeviceErrors = "repeated-device-errors"
	KeyNetworkError         = "network-error"
	KeyBackupFailed         = "backup-failed"
	KeyScreenshotFailed     = "screenshot-failed"
	KeyUploadFailed         = "upload-failed"
	KeyHTTPError            = "http-error"
	KeyUnclassified         = "unclassified"
	KeyGenericFailure       = "generic-failure"
)

// Category is the normalized form of a raw error message. Params carries
// values extracted from the message (e.g. the HTTP status code). Message is
// set only for unclassified passthrough text.
type Category struct {
	Key     string            `json:"key"`
	Params  map[string]string `json:"params,omitempty"`
	Message string            `json:"message,omitempty"`
}

// matcher is either an exact string or a compiled pattern
type matcher struct {
	exact   string
	pattern *regexp.Regexp
}

func exact(s string) matcher { return matcher{exact: s} }

func pattern(expr string) matcher { return matcher{pattern: regexp.MustCompile(expr)} }

func (m matcher) match(s string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(s)
	}
	return s == m.exact
}

// rule maps a matcher to a category key with an optional param extractor.
// Extractors must not panic on malformed input.
type rule struct {
	match   matcher
	key     string
	extract func(raw string) map[string]string
}

var httpCodePattern = regexp.MustCompile(`(?:HTTP|returned)\s*(\d*)`)

func extractHTTPCode(raw string) map[string]string {
	code := "0"
	if m := httpCodePattern.FindStringSubmatch(raw); m != nil && m[1] != "" {
		code = m[1]
	}
	return map[string]string{"code": code}
}

var invalidDayPattern = regexp.MustCompile(`^Invalid day:\s*(.*)$`)

func extractInvalidDay(raw string) map[string]string {
	day := ""
	if m := invalidDayPattern.FindStringSubmatch(raw); m != nil {
		day = strings.TrimSpace(m[1])
	}
	return map[string]string{"day": day}
}

// rules is a priority list: the first matching rule wins. Schedule/slot
// errors come first, then connection/transport errors, then the generic
// HTTP-status rule last (it would otherwise shadow the specific ones).
var rules = []rule{
	// Schedule/slot errors
	{match: exact("Slot not found"), key: KeySlotNotFound},
	{match: exact("Asset not found"), key: KeyAssetNotFound},
	{match: exact("Asset already exists in slot"), key: KeyAssetAlreadyInSlot},
	{match: exact("Item not found"), key: KeyItemNotFound},
	{match: pattern(`^days_of_week `), key: KeyInvalidDaysOfWeek},
	{match: pattern(`^Invalid day:`), key: KeyInvalidDay, extract: extractInvalidDay},
	{match: exact("A default slot already exists"), key: KeyDuplicateDefaultSlot},
	{match: pattern(`^start_time and end_time are required`), key: KeyMissingTimeRange},
	{match: exact("start_time and end_time cannot be identical"), key: KeyIdenticalTimeRange},
	{match: pattern(`overlaps with an existing slot`), key: KeyTimeRangeOverlap},

	// Connection/transport errors
	{match: pattern(`returned repeated errors$`), key: KeyRepeatedDeviceErrors},
	{match: pattern(`^Cannot connect to player `), key: KeyNetworkError},
	{match: pattern(`timed out$`), key: KeyNetworkError},
	{match: pattern(`^Backup failed`), key: KeyBackupFailed},
	{match: pattern(`^Screenshot failed`), key: KeyScreenshotFailed},
	{match: pattern(`^Upload failed`), key: KeyUploadFailed},

	// Generic HTTP-status errors, last
	{match: pattern(`(?:HTTP|returned)\s*\d*\s*$`), key: KeyHTTPError, extract: extractHTTPCode},
}

// Classify maps a raw error message to a Category. It never fails: an
// empty message yields the generic failure category and unrecognized text
// passes through unchanged.
func Classify(raw string) Category {
	if raw == "" {
		return Category{Key: KeyGenericFailure}
	}

	if c, ok := matchRules(raw); ok {
		return c
	}

	// Messages shaped like concatenated field errors
	// ("name: required; color: invalid") are classified per segment.
	if strings.Contains(raw, ": ") && strings.Contains(raw, "; ") {
		return Category{Key: KeyUnclassified, Message: classifySegments(raw)}
	}

	return Category{Key: KeyUnclassified, Message: raw}
}

func matchRules(raw string) (Category, bool) {
	for _, r := range rules {
		if !r.match.match(raw) {
			continue
		}
		c := Category{Key: r.key}
		if r.extract != nil {
			c.Params = r.extract(raw)
		}
		return c, true
	}
	return Category{}, false
}

var fieldPrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+: `)

// classifySegments splits a compound field-error message on "; ", strips
// one leading "field: " prefix per segment, re-attempts rule matching and
// rejoins. Segments that still match nothing stay verbatim.
func classifySegments(raw string) string {
	segments := strings.Split(raw, "; ")
	out := make([]string, len(segments))
	for i, seg := range segments {
		stripped := fieldPrefixPattern.ReplaceAllString(seg, "")
		if c, ok := matchRules(stripped); ok {
			out[i] = c.Text()
		} else {
			out[i] = seg
		}
	}
	return strings.Join(out, "; ")
}

// displayText holds default English text per category key; presentation
// layers may localize on the key instead.
var displayText = map[string]string{
	KeySlotNotFound:         "Schedule slot not found",
	KeyAssetNotFound:        "Asset not found",
	KeyAssetAlreadyInSlot:   "Asset is already in this slot",
	KeyItemNotFound:         "Item not found",
	KeyInvalidDaysOfWeek:    "Invalid days of week",
	KeyInvalidDay:           "Invalid day",
	KeyDuplicateDefaultSlot: "A default slot already exists",
	KeyMissingTimeRange:     "Start and end time are required",
	KeyIdenticalTimeRange:   "Start and end time cannot be identical",
	KeyTimeRangeOverlap:     "Time range overlaps another slot",
	KeyRepeatedDeviceErrors: "Device returned repeated errors",
	KeyNetworkError:         "Network error",
	KeyBackupFailed:         "Backup failed",
	KeyScreenshotFailed:     "Screenshot failed",
	KeyUploadFailed:         "Upload failed",
	KeyHTTPError:            "HTTP error",
	KeyGenericFailure:       "Operation failed",
}

// Text returns display text for the category. Unclassified categories
// return their passthrough message.
func (c Category) Text() string {
	if c.Key == KeyUnclassified {
		return c.Message
	}
	text, ok := displayText[c.Key]
	if !ok {
		return c.Message
	}
	if c.Key == KeyHTTPError {
		if code, ok := c.Params["code"]; ok && code != "0" {
			return text + " " + code
		}
	}
	if c.Key == KeyInvalidDay {
		if day, ok := c.Params["day"]; ok && day != "" {
			return text + ": " + day
		}
	}
	return text
}
