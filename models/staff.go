package models

import (
	"strings"
	"time"
)

// Staff represents a staff member orders can be assigned to
type Staff struct {
	Name      string    `json:"name"` // unique key
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the staff member has a name
func (s *Staff) Validate() ValidationResult {
	errs := []string{}
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "工務人員姓名不能為空")
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
