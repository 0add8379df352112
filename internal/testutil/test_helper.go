package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestProfile creates an engine-side profile with default values
func (h *TestHelper) CreateTestProfile(userID uint, timezone string) *models.UserProfile {
	if userID == 0 {
		userID = 1
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &models.UserProfile{
		UserID:    userID,
		Timezone:  timezone,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestSession creates an active reading session with default values
func (h *TestHelper) CreateTestSession(id string, userID uint, start time.Time) *models.ReadingSession {
	if id == "" {
		id = "11111111-2222-3333-4444-555555555555"
	}
	if userID == 0 {
		userID = 1
	}
	if start.IsZero() {
		start = time.Now().Add(-30 * time.Minute)
	}
	return &models.ReadingSession{
		ID:              id,
		UserID:          userID,
		BookKind:        models.KindEbook,
		BookID:          42,
		DeviceID:        "device-a",
		StartTime:       start,
		LastHeartbeatAt: start,
		IsActive:        true,
		CreatedAt:       start,
		UpdatedAt:       start,
	}
}

// CreateTestDailyStat creates a daily aggregate row with the given duration
func (h *TestHelper) CreateTestDailyStat(userID uint, date string, seconds int64) *models.DailyReadingStat {
	if userID == 0 {
		userID = 1
	}
	return &models.DailyReadingStat{
		UserID:               userID,
		StatDate:             date,
		TotalDurationSeconds: seconds,
		BooksRead:            1,
		BookDurations:        models.DurationMap{"ebook:42": seconds},
		CategoryDurations:    models.DurationMap{"fiction": seconds},
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
	os.Setenv("SESSION_TIMEOUT_MINUTES", "30")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("SESSION_TIMEOUT_MINUTES")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// AssertNil checks if a value is nil
func (h *TestHelper) AssertNil(value interface{}, testName string) {
	if value != nil {
		h.t.Errorf("%s: expected nil value but got %v", testName, value)
	}
}

// GetRecordNotFoundError returns the gorm sentinel services check for
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
