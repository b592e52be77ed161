package repositories

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
)

// SettingsStore keeps the single settings object under store.SettingsKey
type SettingsStore struct {
	mu     sync.Mutex
	store  store.Store
	logger zerolog.Logger
}

// NewSettingsStore creates a settings store over s
func NewSettingsStore(s store.Store, logger zerolog.Logger) *SettingsStore {
	return &SettingsStore{
		store:  s,
		logger: logger.With().Str("component", "settings_store").Logger(),
	}
}

// Get returns the defaults overlaid with every readable stored key. It never
// fails: a key with a value of the wrong type keeps its default, and data that
// is not an object yields the defaults.
func (s *SettingsStore) Get() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := models.DefaultSettings()

	data, ok, err := s.store.Get(store.SettingsKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read settings, using defaults")
		return settings
	}
	if !ok || data == "" {
		return settings
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		s.logger.Warn().Err(err).Msg("stored settings are corrupt, using defaults")
		return settings
	}

	for key, value := range stored {
		field, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			continue
		}
		candidate := settings
		if err := json.Unmarshal(field, &candidate); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable setting")
			continue
		}
		settings = candidate
	}
	return settings
}

// rawStored returns the stored object key by key; corrupt data yields an empty object
func (s *SettingsStore) rawStored() (map[string]json.RawMessage, error) {
	stored := map[string]json.RawMessage{}

	data, ok, err := s.store.Get(store.SettingsKey)
	if err != nil {
		return nil, err
	}
	if !ok || data == "" {
		return stored, nil
	}
	if err := json.Unmarshal([]byte(data), &stored); err != nil || stored == nil {
		s.logger.Warn().Err(err).Msg("stored settings are corrupt, overwriting")
		return map[string]json.RawMessage{}, nil
	}
	return stored, nil
}

// Save merges the set fields of patch into the stored object. Keys not in the
// patch, including ones this version does not know, are kept.
func (s *SettingsStore) Save(patch models.SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.rawStored()
	if err != nil {
		return err
	}

	patchData, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode settings patch: %w", err)
	}
	var updates map[string]json.RawMessage
	if err := json.Unmarshal(patchData, &updates); err != nil {
		return fmt.Errorf("failed to decode settings patch: %w", err)
	}
	for key, value := range updates {
		stored[key] = value
	}

	return s.write(stored)
}

// Replace overwrites the stored object with settings
func (s *SettingsStore) Replace(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(settings)
}

// Clear removes the stored object so Get returns the defaults
func (s *SettingsStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Remove(store.SettingsKey)
}

func (s *SettingsStore) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Set(store.SettingsKey, string(data)); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
