package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var deviceIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,64}$`)

func NormalizeDeviceID(deviceID string) string {
	return strings.TrimSpace(deviceID)
}

func ValidateDeviceID(deviceID string) bool {
	return deviceIDRe.MatchString(NormalizeDeviceID(deviceID))
}

func ValidateDimension(dimension string) bool {
	switch dimension {
	case "week", "month", "year", "total", "calendar":
		return true
	}
	return false
}

func ValidateScope(scope string) bool {
	switch scope {
	case "", "all", "friends":
		return true
	}
	return false
}

func ValidateDate(date string) bool {
	if date == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func ValidateTimezone(timezone string) bool {
	if timezone == "" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// ClampLimit keeps a client-supplied page size inside (0, max].
func ClampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// SessionTimeoutMinutes is the heartbeat age after which the
// reclamation sweep force-closes a session.
func SessionTimeoutMinutes() int {
	minStr := os.Getenv("SESSION_TIMEOUT_MINUTES")
	if minStr == "" {
		return 30
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min < 1 {
		return 30
	}
	return min
}

// MaxHeartbeatDeltaSeconds caps a single heartbeat's claimed reading
// time; anything larger is a client bug or clock skew.
func MaxHeartbeatDeltaSeconds() int64 {
	maxStr := os.Getenv("MAX_HEARTBEAT_DELTA_SECONDS")
	if maxStr == "" {
		return 300
	}
	max, err := strconv.ParseInt(maxStr, 10, 64)
	if err != nil || max < 1 {
		return 300
	}
	return max
}
