package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mquispe/accessdir/internal/directory/audit"
	"github.com/mquispe/accessdir/internal/directory/rank"
	"github.com/mquispe/accessdir/internal/directory/service"
	"github.com/mquispe/accessdir/internal/directory/types"
)

// ── Requests ─────────────────────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// registerRequest carries the supplied fields as a map so omitted fields are
// distinguishable from empty ones — registration merges into any existing
// record and omitted fields keep their prior values.
type registerRequest struct {
	Fields map[string]string `json:"fields"`
}

// ── Responses ────────────────────────────────────────────────────────────────

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

type recordResponse struct {
	Identifier               string `json:"identifier"`
	FirstNames               string `json:"first_names,omitempty"`
	LastNames                string `json:"last_names,omitempty"`
	NationalID               string `json:"national_id,omitempty"`
	ContractType             string `json:"contract_type,omitempty"`
	ContractStart            string `json:"contract_start,omitempty"`
	ContractEnd              string `json:"contract_end,omitempty"`
	Site                     string `json:"site,omitempty"`
	Department               string `json:"department,omitempty"`
	SubDepartment            string `json:"sub_department,omitempty"`
	AccessTier               string `json:"access_tier"`
	SocialMediaAccess        string `json:"social_media_access"`
	SpecialPermissionStart   string `json:"special_permission_start,omitempty"`
	SpecialPermissionEnd     string `json:"special_permission_end,omitempty"`
	VPNActive                string `json:"vpn_active"`
	VPNStart                 string `json:"vpn_start,omitempty"`
	VPNEnd                   string `json:"vpn_end,omitempty"`
	SpecialPermissionsActive string `json:"special_permissions_active"`
	Status                   string `json:"status"`
}

func recordToResponse(r types.AccessRecord) recordResponse {
	return recordResponse{
		Identifier:               r.Identifier,
		FirstNames:               r.FirstNames,
		LastNames:                r.LastNames,
		NationalID:               r.NationalID,
		ContractType:             r.ContractType,
		ContractStart:            r.ContractStart,
		ContractEnd:              r.ContractEnd,
		Site:                     r.Site,
		Department:               r.Department,
		SubDepartment:            r.SubDepartment,
		AccessTier:               r.AccessTier,
		SocialMediaAccess:        r.SocialMediaAccess,
		SpecialPermissionStart:   r.SpecialPermissionStart,
		SpecialPermissionEnd:     r.SpecialPermissionEnd,
		VPNActive:                r.VPNActive,
		VPNStart:                 r.VPNStart,
		VPNEnd:                   r.VPNEnd,
		SpecialPermissionsActive: r.SpecialPermissionsActive,
		Status:                   r.Status,
	}
}

func recordsToResponse(recs []types.AccessRecord) []recordResponse {
	out := make([]recordResponse, len(recs))
	for i, r := range recs {
		out[i] = recordToResponse(r)
	}
	return out
}

type registerResponse struct {
	Created bool           `json:"created"`
	Record  recordResponse `json:"record"`
}

type alertResponse struct {
	Category      string `json:"category"`
	Identifier    string `json:"identifier"`
	Names         string `json:"names,omitempty"`
	Department    string `json:"department,omitempty"`
	DaysRemaining int    `json:"days_remaining"`
	ExpiryDate    string `json:"expiry_date"`
}

func alertsToResponse(alerts []service.Alert) []alertResponse {
	out := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = alertResponse{
			Category:      a.Category,
			Identifier:    a.Record.Identifier,
			Names:         a.Record.FirstNames + " " + a.Record.LastNames,
			Department:    a.Record.Department,
			DaysRemaining: a.DaysRemaining,
			ExpiryDate:    a.ExpiryDate,
		}
	}
	return out
}

type seriesEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func seriesToResponse(entries []rank.Entry) []seriesEntry {
	out := make([]seriesEntry, len(entries))
	for i, e := range entries {
		out[i] = seriesEntry{Label: e.Label, Count: e.Count}
	}
	return out
}

type summaryResponse struct {
	Total     int             `json:"total"`
	Active    int             `json:"active"`
	Dimension string          `json:"dimension"`
	Series    []seriesEntry   `json:"series"`
	Alerts    []alertResponse `json:"alerts"`
}

type auditEventResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
}

func auditToResponse(events []audit.Event) []auditEventResponse {
	out := make([]auditEventResponse, len(events))
	for i, ev := range events {
		out[i] = auditEventResponse{
			ID:        ev.ID,
			Timestamp: ev.Timestamp.Format(time.RFC3339),
			Actor:     ev.Actor,
			Action:    ev.Action,
			Detail:    ev.Detail,
		}
	}
	return out
}

// ── Writers ──────────────────────────────────────────────────────────────────

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
