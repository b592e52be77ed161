package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/rs/zerolog"
)

// StaffService manages the staff members orders are assigned to
type StaffService struct {
	staff  *repositories.StaffRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewStaffService creates a staff service over the staff repository
func NewStaffService(staff *repositories.StaffRepository, now func() time.Time, logger zerolog.Logger) *StaffService {
	if now == nil {
		now = time.Now
	}
	return &StaffService{
		staff:  staff,
		now:    now,
		logger: logger.With().Str("component", "staff_service").Logger(),
	}
}

// SaveStaff validates and stores a member. An existing member with the same
// name keeps its position and createdAt.
func (s *StaffService) SaveStaff(name, phone string) (*models.Staff, error) {
	member := models.Staff{
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	}
	if result := member.Validate(); !result.IsValid {
		return nil, &models.ValidationError{Errors: result.Errors}
	}

	existing, err := s.staff.Get(member.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		member.CreatedAt = existing.CreatedAt
	} else {
		member.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	if err := s.staff.Save(member); err != nil {
		return nil, fmt.Errorf("failed to save staff member: %w", err)
	}

	s.logger.Info().Str("staff", member.Name).Bool("updated", existing != nil).Msg("staff member saved")
	return &member, nil
}

// ListStaff returns all members in insertion order
func (s *StaffService) ListStaff() ([]models.Staff, error) {
	return s.staff.List()
}

// GetStaff returns the member with the given name or models.ErrStaffNotFound
func (s *StaffService) GetStaff(name string) (*models.Staff, error) {
	member, err := s.staff.Get(name)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, models.ErrStaffNotFound
	}
	return member, nil
}

// DeleteStaff removes a member. Orders naming the member are not touched.
func (s *StaffService) DeleteStaff(name string) error {
	if _, err := s.GetStaff(name); err != nil {
		return err
	}
	if err := s.staff.Delete(name); err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}

	s.logger.Info().Str("staff", name).Msg("staff member deleted")
	return nil
}
