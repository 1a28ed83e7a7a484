package config

import (
	"encoding/json"
	"fmt"
)

const (
	// SettingsKey is the key the PAYONE account settings are persisted under.
	SettingsKey = "settings"

	// MaskedKey is the sentinel returned in place of the real portal key on
	// reads. An update submitting this sentinel (or an empty key) keeps the
	// stored key unchanged.
	MaskedKey = "***HIDDEN***"
)

// Settings holds the PAYONE account credentials and mode. The zero value is
// not usable; Bootstrap seeds the store with DefaultSettings.
type Settings struct {
	AID        string `json:"aid"`
	PortalID   string `json:"portalid"`
	MID        string `json:"mid"`
	Key        string `json:"key"`
	Mode       string `json:"mode" validate:"omitempty,oneof=test live"`
	APIVersion string `json:"api_version" validate:"omitempty,api_version"`
}

// DefaultSettings returns the settings seeded at first start
func DefaultSettings() Settings {
	return Settings{
		AID:        "",
		PortalID:   "",
		MID:        "",
		Key:        "",
		Mode:       "test",
		APIVersion: "3.10",
	}
}

// Configured reports whether the credentials required for gateway calls are present
func (s Settings) Configured() bool {
	return s.AID != "" && s.PortalID != "" && s.Key != ""
}

// Masked returns a copy with the portal key replaced by the sentinel
func (s Settings) Masked() Settings {
	if s.Key != "" {
		s.Key = MaskedKey
	}
	return s
}

// SettingsStore reads and writes the singleton settings record in the
// backing key-value store. Reads are never cached so credential updates take
// effect on the next gateway call.
type SettingsStore struct {
	store Store
}

// NewSettingsStore creates a settings store on top of the given backing store
func NewSettingsStore(store Store) *SettingsStore {
	return &SettingsStore{store: store}
}

// Bootstrap seeds default settings when none are stored yet
func (ss *SettingsStore) Bootstrap() error {
	raw, err := ss.store.Get(SettingsKey)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if raw != nil {
		return nil
	}
	return ss.Save(DefaultSettings())
}

// Load returns the stored settings, or the defaults when nothing is stored
func (ss *SettingsStore) Load() (Settings, error) {
	raw, err := ss.store.Get(SettingsKey)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if raw == nil {
		return DefaultSettings(), nil
	}

	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, nil
}

// Save persists the given settings
func (ss *SettingsStore) Save(settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := ss.store.Set(SettingsKey, raw); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
