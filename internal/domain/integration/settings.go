package integration

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Settings is the per-store configuration blob
type Settings struct {
	StoreID       int       `json:"store_id"`
	ClientID      string    `json:"client_id" validate:"required"`
	ClientSecret  string    `json:"client_secret" validate:"required"`
	Username      string    `json:"username" validate:"required"`
	Password      string    `json:"password" validate:"required"`
	RedirectURI   string    `json:"redirect_uri" validate:"omitempty,url"`
	CompanyID     string    `json:"company_id" validate:"required,numeric"`
	EncryptionKey string    `json:"encryption_key" validate:"required,base64"`
	EncryptionIV  string    `json:"encryption_iv" validate:"required,base64"`
	BillingEmail  string    `json:"billing_email" validate:"required,email"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var settingsValidator = validator.New()

// Validate checks that every required field is present and well formed
func (s *Settings) Validate() error {
	return settingsValidator.Struct(s)
}

// CompanyIDInt returns the numeric company id, or 0 when it is not a number
func (s *Settings) CompanyIDInt() int {
	id, err := strconv.Atoi(strings.TrimSpace(s.CompanyID))
	if err != nil {
		return 0
	}
	return id
}

// Masked returns a copy with secrets replaced for display
func (s *Settings) Masked() Settings {
	c := *s
	c.ClientSecret = mask(c.ClientSecret)
	c.Password = mask(c.Password)
	c.EncryptionKey = mask(c.EncryptionKey)
	c.EncryptionIV = mask(c.EncryptionIV)
	return c
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return "********"
}

// ErrSettingsNotFound is returned when a store has no saved settings
var ErrSettingsNotFound = errors.New("store settings not found")

// SettingsRepository loads and saves store settings
type SettingsRepository interface {
	Load(ctx context.Context, storeID int) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

// SettingsProvider resolves the settings for the current operation
type SettingsProvider interface {
	Current(ctx context.Context) (*Settings, error)
}

// SettingsProviderFunc adapts a function to SettingsProvider
type SettingsProviderFunc func(ctx context.Context) (*Settings, error)

// Current calls f
func (f SettingsProviderFunc) Current(ctx context.Context) (*Settings, error) {
	return f(ctx)
}

// StaticSettings always returns s
func StaticSettings(s *Settings) SettingsProvider {
	return SettingsProviderFunc(func(context.Context) (*Settings, error) {
		return s, nil
	})
}
