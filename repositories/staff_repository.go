package repositories

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
)

// StaffRepository stores staff members under store.StaffKey, keyed by name
type StaffRepository struct {
	mu     sync.Mutex
	store  store.Store
	logger zerolog.Logger
}

// NewStaffRepository creates a staff repository over s
func NewStaffRepository(s store.Store, logger zerolog.Logger) *StaffRepository {
	return &StaffRepository{
		store:  s,
		logger: logger.With().Str("component", "staff_repository").Logger(),
	}
}

func (r *StaffRepository) load() ([]models.Staff, error) {
	data, ok, err := r.store.Get(store.StaffKey)
	if err != nil {
		return nil, err
	}
	if !ok || data == "" {
		return []models.Staff{}, nil
	}

	var members []models.Staff
	if err := json.Unmarshal([]byte(data), &members); err != nil {
		r.logger.Warn().Err(err).Msg("stored staff are corrupt, using empty collection")
		return []models.Staff{}, nil
	}
	if members == nil {
		members = []models.Staff{}
	}
	return members, nil
}

func (r *StaffRepository) write(members []models.Staff) error {
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("failed to encode staff: %w", err)
	}
	if err := r.store.Set(store.StaffKey, string(data)); err != nil {
		return fmt.Errorf("failed to write staff: %w", err)
	}
	return nil
}

// Save inserts the member, or overwrites the member with the same name in place
func (r *StaffRepository) Save(member models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range members {
		if members[i].Name == member.Name {
			members[i] = member
			replaced = true
			break
		}
	}
	if !replaced {
		members = append(members, member)
	}
	return r.write(members)
}

// Get returns the member with the given name
func (r *StaffRepository) Get(name string) (*models.Staff, error) {
	members, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].Name == name {
			return &members[i], nil
		}
	}
	return nil, nil
}

// List returns all members in insertion order
func (r *StaffRepository) List() ([]models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Delete removes the member with the given name; an absent name is a no-op.
// Orders that name the member are left as they are.
func (r *StaffRepository) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.load()
	if err != nil {
		return err
	}

	kept := members[:0]
	for _, m := range members {
		if m.Name != name {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(members) {
		return nil
	}
	return r.write(kept)
}

// ReplaceAll overwrites the whole collection
func (r *StaffRepository) ReplaceAll(members []models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members == nil {
		members = []models.Staff{}
	}
	return r.write(members)
}

// Clear removes the collection key
func (r *StaffRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Remove(store.StaffKey)
}
