package report

import (
	"errors"
	"fmt"
	"strings"
)

// Address usage categories accepted on the command line.
const (
	CategoryFinance = "finanzen"
	CategoryCouncil = "fsl"
	CategoryContact = "kontakt"
)

// Categories lists the valid usage categories.
var Categories = []string{CategoryFinance, CategoryCouncil, CategoryContact}

// ErrUnknownCategory is returned for a category outside Categories.
var ErrUnknownCategory = errors.New("unknown category")

// ErrNoCategories is returned when no category was requested.
var ErrNoCategories = errors.New("at least one category is required")

// Options selects the groups and columns of a report.
type Options struct {
	// Categories are matched against address usage tags.
	Categories []string

	// FinancialYearStart keeps only groups with exactly this marker. Empty disables the filter.
	FinancialYearStart string

	// OpenRequestSemester keeps only groups with an open payout request in this
	// semester and adds the request_id column. Empty disables the filter.
	OpenRequestSemester string

	// NoRequestSemester keeps only groups without any payout request in this
	// semester. Empty disables the filter.
	NoRequestSemester string

	// IncludePermissions adds the permissions_json column.
	IncludePermissions bool
}

// NeedsRequests reports whether payout requests have to be fetched.
func (o Options) NeedsRequests() bool {
	return o.OpenRequestSemester != "" || o.NoRequestSemester != ""
}

// Validate checks the requested categories.
func (o Options) Validate() error {
	if len(o.Categories) == 0 {
		return ErrNoCategories
	}
	for _, c := range o.Categories {
		if !validCategory(c) {
			return fmt.Errorf("%w %q (valid: %s)", ErrUnknownCategory, c, strings.Join(Categories, ", "))
		}
	}
	return nil
}

// ParseCategories splits comma-separated values, drops duplicates and
// validates each category. Order of first occurrence is kept.
func ParseCategories(values []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			if !validCategory(c) {
				return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownCategory, c, strings.Join(Categories, ", "))
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCategories
	}
	return out, nil
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
