package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/permissions"
)

// Input is the fetched data a report is built from.
type Input struct {
	Groups      map[string]fsapi.Group
	Permissions map[string][]permissions.Permission
	Requests    []fsapi.PayoutRequest
}

// Row is one line of the export.
type Row struct {
	GroupID         string
	GroupName       string
	Addresses       string
	PermissionsJSON string
	RequestID       string
}

// Build filters the groups and returns one row per included group, ordered by
// group id.
func Build(in Input, opts Options) ([]Row, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(in.Groups))
	for id := range in.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []Row
	for _, id := range ids {
		g := in.Groups[id]
		openRequest := OpenRequest(id, in.Requests, opts.OpenRequestSemester)
		if !Include(id, g, in.Requests, openRequest, opts) {
			continue
		}

		row := Row{
			GroupID:   id,
			GroupName: g.Name,
			Addresses: strings.Join(AddressSet(g.EmailAddresses, opts.Categories), ","),
			RequestID: openRequest,
		}
		if opts.IncludePermissions {
			perms, err := permissions.MarshalList(in.Permissions[id])
			if err != nil {
				return nil, fmt.Errorf("failed to encode permissions of group %s: %w", id, err)
			}
			row.PermissionsJSON = perms
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Include applies the financial-year, open-request and no-request filters to
// the group stored under groupID. Each filter only applies when its option is
// set; the filters are independent.
func Include(groupID string, g fsapi.Group, requests []fsapi.PayoutRequest, openRequest string, opts Options) bool {
	if opts.FinancialYearStart != "" && g.FinancialYearStart != opts.FinancialYearStart {
		return false
	}
	if opts.OpenRequestSemester != "" && openRequest == "" {
		return false
	}
	if opts.NoRequestSemester != "" && !HasNoRequest(groupID, requests, opts.NoRequestSemester) {
		return false
	}
	return true
}

// OpenRequest returns the id of the first submitted or filed request of the
// group in semester, or "" when there is none or semester is empty.
func OpenRequest(groupID string, requests []fsapi.PayoutRequest, semester string) string {
	if semester == "" {
		return ""
	}
	for _, r := range requests {
		if r.Group == groupID && r.Semester == semester && r.Status.Open() {
			return r.ID
		}
	}
	return ""
}

// HasNoRequest reports whether semester is set and the group has no request of
// any status in it.
func HasNoRequest(groupID string, requests []fsapi.PayoutRequest, semester string) bool {
	if semester == "" {
		return false
	}
	for _, r := range requests {
		if r.Group == groupID && r.Semester == semester {
			return false
		}
	}
	return true
}

// AddressSet returns the sorted, deduplicated addresses whose usage tags
// contain at least one of categories. Tags are compared case-sensitively.
func AddressSet(addresses []fsapi.EmailAddress, categories []string) []string {
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	set := map[string]bool{}
	for _, a := range addresses {
		for _, usage := range a.Usages {
			if wanted[usage] {
				set[a.Address] = true
				break
			}
		}
	}

	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
