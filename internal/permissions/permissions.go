package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Permission is the set of rights one user holds for one group.
type Permission struct {
	Group               string `json:"fs"`
	ReadPublicData      bool   `json:"read_public_data"`
	WritePublicData     bool   `json:"write_public_data"`
	ReadProtectedData   bool   `json:"read_protected_data"`
	WriteProtectedData  bool   `json:"write_protected_data"`
	SubmitPayoutRequest bool   `json:"submit_payout_request"`
	Locked              bool   `json:"locked"`
	Username            string `json:"username"`
	FullName            string `json:"full_name"`
}

// Capability couples a permission flag with its human-readable label.
type Capability struct {
	Field string
	Label string
	has   func(Permission) bool
}

// Capabilities lists the rendered flags in output order.
var Capabilities = []Capability{
	{"read_public_data", "Öffentliche Daten lesen", func(p Permission) bool { return p.ReadPublicData }},
	{"write_public_data", "Öffentliche Daten bearbeiten", func(p Permission) bool { return p.WritePublicData }},
	{"read_protected_data", "Geschützte Daten lesen", func(p Permission) bool { return p.ReadProtectedData }},
	{"write_protected_data", "Geschützte Daten bearbeiten", func(p Permission) bool { return p.WriteProtectedData }},
	{"submit_payout_request", "Anträge stellen", func(p Permission) bool { return p.SubmitPayoutRequest }},
}

// Labels returns the labels of every capability p holds, in table order.
func (p Permission) Labels() []string {
	var labels []string
	for _, c := range Capabilities {
		if c.has(p) {
			labels = append(labels, c.Label)
		}
	}
	return labels
}

// Header returns the first line of a user's block.
func (p Permission) Header() string {
	if p.FullName == "" {
		return p.Username
	}
	return fmt.Sprintf("%s (%s)", p.Username, p.FullName)
}

// MarshalList serialises perms as compact JSON. A nil list encodes as [].
func MarshalList(perms []Permission) (string, error) {
	if perms == nil {
		perms = []Permission{}
	}
	data, err := json.Marshal(perms)
	if err != nil {
		return "", fmt.Errorf("failed to encode permissions: %w", err)
	}
	return string(data), nil
}

// ParseList decodes a permissions_json column. Empty input yields no permissions.
func ParseList(raw string) ([]Permission, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var perms []Permission
	if err := json.Unmarshal([]byte(raw), &perms); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	return perms, nil
}

// FormatLabels renders one block per user holding at least one capability,
// sorted by username. Blocks are separated by a blank line.
func FormatLabels(perms []Permission) string {
	sorted := make([]Permission, len(perms))
	copy(sorted, perms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Username < sorted[j].Username
	})

	var blocks []string
	for _, p := range sorted {
		labels := p.Labels()
		if len(labels) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString(p.Header())
		for _, l := range labels {
			b.WriteString("\n- ")
			b.WriteString(l)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// ExpandJSON parses a permissions_json column and formats it with FormatLabels.
func ExpandJSON(raw string) (string, error) {
	perms, err := ParseList(raw)
	if err != nil {
		return "", err
	}
	return FormatLabels(perms), nil
}
