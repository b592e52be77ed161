package models

import "strings"

// OrderFilter is a conjunctive set of optional match predicates
type OrderFilter struct {
	Site     string      `json:"site,omitempty" form:"site"`         // case-insensitive substring
	Building string      `json:"building,omitempty" form:"building"` // case-insensitive substring
	Staff    string      `json:"staff,omitempty" form:"staff"`       // case-insensitive substring
	Status   OrderStatus `json:"status,omitempty" form:"status"`     // exact
	DateFrom string      `json:"dateFrom,omitempty" form:"dateFrom"` // inclusive, YYYY-MM-DD
	DateTo   string      `json:"dateTo,omitempty" form:"dateTo"`     // inclusive, YYYY-MM-DD
}

// Matches reports whether o satisfies every set predicate
func (f OrderFilter) Matches(o *Order) bool {
	if f.Site != "" && !containsFold(o.Site, f.Site) {
		return false
	}
	if f.Building != "" && !containsFold(o.Building, f.Building) {
		return false
	}
	if f.Staff != "" && !containsFold(o.Staff, f.Staff) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.DateFrom != "" && o.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && o.Date > f.DateTo {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
