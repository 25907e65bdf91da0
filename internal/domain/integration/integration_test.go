package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// CategoryMapping Tests
// ---------------------------------------------------------------------------

func TestNewCategoryMapping(t *testing.T) {
	t.Run("valid mapping", func(t *testing.T) {
		m, err := NewCategoryMapping(0, 42, 1001, 0, "Phones")
		require.NoError(t, err)
		assert.Equal(t, 42, m.LocalID)
		assert.Equal(t, 1001, m.RemoteID)
		assert.False(t, m.UpdatedAt.IsZero())
	})

	t.Run("invalid local id", func(t *testing.T) {
		_, err := NewCategoryMapping(0, 0, 1001, 0, "Phones")
		assert.ErrorIs(t, err, ErrMappingInvalidLocalID)
	})

	t.Run("invalid remote id", func(t *testing.T) {
		_, err := NewCategoryMapping(0, 3, -2, 0, "Phones")
		assert.ErrorIs(t, err, ErrMappingInvalidRemoteID)
	})
}

func TestCategoryMapping_Rename(t *testing.T) {
	m, err := NewCategoryMapping(0, 1, 2, 0, "Old")
	require.NoError(t, err)
	before := m.UpdatedAt

	m.Rename("New")
	assert.Equal(t, "New", m.Name)
	assert.False(t, m.UpdatedAt.Before(before))
}

// ---------------------------------------------------------------------------
// Settings Tests
// ---------------------------------------------------------------------------

func validSettings() *Settings {
	return &Settings{
		ClientID:      "client",
		ClientSecret:  "secret",
		Username:      "user@example.com",
		Password:      "pw",
		CompanyID:     "5",
		EncryptionKey: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		EncryptionIV:  "MDEyMzQ1Njc4OWFiY2RlZg==",
		BillingEmail:  "billing@example.com",
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"valid", func(s *Settings) {}, false},
		{"missing client id", func(s *Settings) { s.ClientID = "" }, true},
		{"non numeric company", func(s *Settings) { s.CompanyID = "abc" }, true},
		{"bad billing email", func(s *Settings) { s.BillingEmail = "nope" }, true},
		{"bad key encoding", func(s *Settings) { s.EncryptionKey = "not base64!" }, true},
		{"redirect optional", func(s *Settings) { s.RedirectURI = "" }, false},
		{"redirect must be url", func(s *Settings) { s.RedirectURI = "::" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettings_CompanyIDInt(t *testing.T) {
	s := validSettings()
	assert.Equal(t, 5, s.CompanyIDInt())

	s.CompanyID = "x"
	assert.Equal(t, 0, s.CompanyIDInt())
}

func TestSettings_Masked(t *testing.T) {
	s := validSettings()
	m := s.Masked()

	assert.Equal(t, "client", m.ClientID)
	assert.Equal(t, "********", m.ClientSecret)
	assert.Equal(t, "********", m.Password)
	assert.Equal(t, "********", m.EncryptionKey)
	assert.Equal(t, "secret", s.ClientSecret, "original must be untouched")
}

// ---------------------------------------------------------------------------
// SyncRun Tests
// ---------------------------------------------------------------------------

func TestSyncRun_Finish(t *testing.T) {
	t.Run("success without errors", func(t *testing.T) {
		r := NewSyncRun("01H", 0, "admin")
		r.Stats.ProductsCreated = 3
		r.Finish()
		assert.Equal(t, SyncRunSuccess, r.Status)
		require.NotNil(t, r.FinishedAt)
	})

	t.Run("partial with errors and work", func(t *testing.T) {
		r := NewSyncRun("01H", 0, "admin")
		r.Stats.Categories = 2
		r.Stats.Errors = 1
		r.Finish()
		assert.Equal(t, SyncRunPartial, r.Status)
	})

	t.Run("failed with only errors", func(t *testing.T) {
		r := NewSyncRun("01H", 0, "admin")
		r.Stats.Errors = 1
		r.Finish()
		assert.Equal(t, SyncRunFailed, r.Status)
	})
}

func TestSyncRun_SkipAndFail(t *testing.T) {
	r := NewSyncRun("01H", 0, "admin")
	r.Skip("no active subscription")
	assert.Equal(t, SyncRunSkipped, r.Status)
	assert.Equal(t, "no active subscription", r.Error)

	r = NewSyncRun("01H", 0, "admin")
	r.Fail(errors.New("boom"))
	assert.Equal(t, SyncRunFailed, r.Status)
	assert.Equal(t, "boom", r.Error)
}

func TestSubscriptionStatus_Fresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var missing *SubscriptionStatus
	assert.False(t, missing.Fresh(now, time.Hour))

	s := &SubscriptionStatus{Valid: true, LastChecked: now.Add(-30 * time.Minute)}
	assert.True(t, s.Fresh(now, time.Hour))
	assert.False(t, s.Fresh(now, 30*time.Minute))
}
