package types

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record status values.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Boolean-like flag values used throughout the persisted table.
const (
	FlagYes = "SI"
	FlagNo  = "NO"
)

// Access tiers.
const (
	TierNormal      = "NORMAL"
	TierElevated    = "ELEVATED"
	TierSocialMedia = "SOCIAL-MEDIA"
	TierRemote      = "REMOTE"
	TierFree        = "FREE"
)

// FieldNames is the canonical persisted field order. The flat-file header is
// written in exactly this order, so reordering or renaming entries is a
// breaking change for any table already on disk.
var FieldNames = []string{
	"identifier",
	"first_names",
	"last_names",
	"national_id",
	"contract_type",
	"contract_start",
	"contract_end",
	"site",
	"department",
	"sub_department",
	"access_tier",
	"social_media_access",
	"special_permission_start",
	"special_permission_end",
	"vpn_active",
	"vpn_start",
	"vpn_end",
	"special_permissions_active",
	"status",
}

// AccessRecord is one person's network-access entitlement record. Date fields
// hold ISO YYYY-MM-DD strings or are empty when absent; flag fields hold the
// literal SI/NO values from the persisted table.
type AccessRecord struct {
	Identifier               string
	FirstNames               string
	LastNames                string
	NationalID               string
	ContractType             string
	ContractStart            string
	ContractEnd              string
	Site                     string
	Department               string
	SubDepartment            string
	AccessTier               string
	SocialMediaAccess        string
	SpecialPermissionStart   string
	SpecialPermissionEnd     string
	VPNActive                string
	VPNStart                 string
	VPNEnd                   string
	SpecialPermissionsActive string
	Status                   string
}

// NormalizeIdentifier produces the canonical form of an identifier: NFC
// normalized, trimmed, lowercase. Identifiers compare equal iff their
// normalized forms are byte-equal.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// FromFields builds an AccessRecord from a raw field map as returned by a
// record store. Unknown keys are ignored; missing keys yield empty fields.
func FromFields(fields map[string]string) AccessRecord {
	return AccessRecord{
		Identifier:               NormalizeIdentifier(fields["identifier"]),
		FirstNames:               strings.TrimSpace(fields["first_names"]),
		LastNames:                strings.TrimSpace(fields["last_names"]),
		NationalID:               strings.TrimSpace(fields["national_id"]),
		ContractType:             strings.TrimSpace(fields["contract_type"]),
		ContractStart:            strings.TrimSpace(fields["contract_start"]),
		ContractEnd:              strings.TrimSpace(fields["contract_end"]),
		Site:                     strings.TrimSpace(fields["site"]),
		Department:               strings.TrimSpace(fields["department"]),
		SubDepartment:            strings.TrimSpace(fields["sub_department"]),
		AccessTier:               strings.ToUpper(strings.TrimSpace(fields["access_tier"])),
		SocialMediaAccess:        normalizeFlag(fields["social_media_access"]),
		SpecialPermissionStart:   strings.TrimSpace(fields["special_permission_start"]),
		SpecialPermissionEnd:     strings.TrimSpace(fields["special_permission_end"]),
		VPNActive:                normalizeFlag(fields["vpn_active"]),
		VPNStart:                 strings.TrimSpace(fields["vpn_start"]),
		VPNEnd:                   strings.TrimSpace(fields["vpn_end"]),
		SpecialPermissionsActive: normalizeFlag(fields["special_permissions_active"]),
		Status:                   normalizeStatus(fields["status"]),
	}
}

// Fields converts the record back into its raw field map, keyed by the
// canonical field names.
func (r AccessRecord) Fields() map[string]string {
	return map[string]string{
		"identifier":                 r.Identifier,
		"first_names":                r.FirstNames,
		"last_names":                 r.LastNames,
		"national_id":                r.NationalID,
		"contract_type":              r.ContractType,
		"contract_start":             r.ContractStart,
		"contract_end":               r.ContractEnd,
		"site":                       r.Site,
		"department":                 r.Department,
		"sub_department":             r.SubDepartment,
		"access_tier":                r.AccessTier,
		"social_media_access":        r.SocialMediaAccess,
		"special_permission_start":   r.SpecialPermissionStart,
		"special_permission_end":     r.SpecialPermissionEnd,
		"vpn_active":                 r.VPNActive,
		"vpn_start":                  r.VPNStart,
		"vpn_end":                    r.VPNEnd,
		"special_permissions_active": r.SpecialPermissionsActive,
		"status":                     r.Status,
	}
}

// Active reports whether the record is in the ACTIVE state.
func (r AccessRecord) Active() bool {
	return r.Status == StatusActive
}

func normalizeFlag(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case FlagYes:
		return FlagYes
	default:
		return FlagNo
	}
}

func normalizeStatus(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case StatusInactive:
		return StatusInactive
	default:
		return StatusActive
	}
}
