package service

import (
	"strings"

	"github.com/mquispe/accessdir/internal/directory/types"
)

// NoneLabel is the bucket for blank dimension values in counts.
const NoneLabel = "NONE"

// Query is the predicate set for Filter. All predicates are optional and
// conjunctive. An explicit Status overrides the default-active behavior
// entirely; otherwise only ACTIVE records pass unless IncludeInactive is set.
type Query struct {
	// Text matches case-insensitively as a substring of the identifier or
	// the personal names.
	Text string

	// Exact-match organizational placement.
	Site          string
	Department    string
	SubDepartment string

	// Exact-match access tier (NORMAL, ELEVATED, SOCIAL-MEDIA, REMOTE, FREE).
	AccessTier string

	// Exact-match SI/NO flags. Empty means "don't care".
	SocialMedia        string
	VPN                string
	SpecialPermissions string

	// Status filters on an explicit status (ACTIVE or INACTIVE).
	Status string

	// IncludeInactive lets all statuses pass when no explicit Status is set.
	IncludeInactive bool
}

// Filter returns the records matching every set predicate, in the
// directory's insertion order.
func (s *Service) Filter(q Query) []types.AccessRecord {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	status := strings.ToUpper(strings.TrimSpace(q.Status))

	var out []types.AccessRecord
	for _, rec := range s.snapshot().list {
		if status != "" {
			if rec.Status != status {
				continue
			}
		} else if !q.IncludeInactive && !rec.Active() {
			continue
		}

		if text != "" && !matchesText(rec, text) {
			continue
		}
		if q.Site != "" && rec.Site != q.Site {
			continue
		}
		if q.Department != "" && rec.Department != q.Department {
			continue
		}
		if q.SubDepartment != "" && rec.SubDepartment != q.SubDepartment {
			continue
		}
		if q.AccessTier != "" && rec.AccessTier != strings.ToUpper(q.AccessTier) {
			continue
		}
		if q.SocialMedia != "" && rec.SocialMediaAccess != strings.ToUpper(q.SocialMedia) {
			continue
		}
		if q.VPN != "" && rec.VPNActive != strings.ToUpper(q.VPN) {
			continue
		}
		if q.SpecialPermissions != "" && rec.SpecialPermissionsActive != strings.ToUpper(q.SpecialPermissions) {
			continue
		}

		out = append(out, rec)
	}
	return out
}

func matchesText(rec types.AccessRecord, text string) bool {
	return strings.Contains(strings.ToLower(rec.Identifier), text) ||
		strings.Contains(strings.ToLower(rec.FirstNames), text) ||
		strings.Contains(strings.ToLower(rec.LastNames), text)
}

// CountActive returns the number of ACTIVE records.
func (s *Service) CountActive() int {
	n := 0
	for _, rec := range s.snapshot().list {
		if rec.Active() {
			n++
		}
	}
	return n
}

// countDimensions maps dimension names to record field accessors. Counts run
// over ACTIVE records only.
var countDimensions = map[string]func(types.AccessRecord) string{
	"site":                func(r types.AccessRecord) string { return r.Site },
	"department":          func(r types.AccessRecord) string { return r.Department },
	"sub_department":      func(r types.AccessRecord) string { return r.SubDepartment },
	"contract_type":       func(r types.AccessRecord) string { return r.ContractType },
	"vpn_active":          func(r types.AccessRecord) string { return r.VPNActive },
	"social_media_access": func(r types.AccessRecord) string { return r.SocialMediaAccess },
	"access_tier":         func(r types.AccessRecord) string { return r.AccessTier },
}

// CountBy returns label→count for the dimension, over ACTIVE records only.
// Blank values bucket under NoneLabel.
func (s *Service) CountBy(dimension string) (map[string]int, error) {
	get, ok := countDimensions[strings.ToLower(strings.TrimSpace(dimension))]
	if !ok {
		return nil, ErrUnknownDimension
	}

	counts := make(map[string]int)
	for _, rec := range s.snapshot().list {
		if !rec.Active() {
			continue
		}
		label := strings.TrimSpace(get(rec))
		if label == "" {
			label = NoneLabel
		}
		counts[label]++
	}
	return counts, nil
}

// Dimensions lists the valid CountBy dimension names.
func Dimensions() []string {
	return []string{
		"site", "department", "sub_department", "contract_type",
		"vpn_active", "social_media_access", "access_tier",
	}
}
