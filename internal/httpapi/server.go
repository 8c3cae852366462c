package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mquispe/accessdir/internal/auth"
	"github.com/mquispe/accessdir/internal/directory/audit"
	"github.com/mquispe/accessdir/internal/directory/rank"
	"github.com/mquispe/accessdir/internal/directory/service"
)

// OthersLabel is the synthetic bucket for ranks excluded from the top-N
// dashboard series.
const OthersLabel = "OTHERS"

type Dependencies struct {
	Logger    *log.Logger
	Addr      string
	Directory *service.Service
	Auth      *auth.Service
	Trail     *audit.Trail

	// AlertHorizonDays and DashboardTopN are the defaults applied when the
	// summary request doesn't override them.
	AlertHorizonDays int
	DashboardTopN    int
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	directory  *service.Service
	auth       *auth.Service
	trail      *audit.Trail
	sessions   *sessionStore

	alertHorizonDays int
	dashboardTopN    int
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:           d.Logger,
		mux:              mux,
		directory:        d.Directory,
		auth:             d.Auth,
		trail:            d.Trail,
		sessions:         newSessionStore(),
		alertHorizonDays: d.AlertHorizonDays,
		dashboardTopN:    d.DashboardTopN,
	}
	if s.alertHorizonDays <= 0 {
		s.alertHorizonDays = 7
	}
	if s.dashboardTopN <= 0 {
		s.dashboardTopN = 12
	}

	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/logout", s.withIdentity(s.handleLogout))

	mux.HandleFunc("GET /v1/records", s.withIdentity(s.handleFilterRecords))
	mux.HandleFunc("GET /v1/records/{id}", s.withIdentity(s.handleGetRecord))
	mux.HandleFunc("POST /v1/records", s.withAdmin(s.handleRegister))
	mux.HandleFunc("POST /v1/records/{id}/activate", s.withAdmin(s.handleActivate))
	mux.HandleFunc("POST /v1/records/{id}/deactivate", s.withAdmin(s.handleDeactivate))
	mux.HandleFunc("POST /v1/records/{id}/revoke", s.withAdmin(s.handleRevoke))
	mux.HandleFunc("POST /v1/export", s.withAdmin(s.handleExport))

	mux.HandleFunc("GET /v1/summary", s.withIdentity(s.handleSummary))
	mux.HandleFunc("GET /v1/audit", s.withIdentity(s.handleAudit))

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	id, err := s.auth.VerifyLogin(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "not_authenticated", "invalid credentials or inactive account")
			return
		}
		s.logger.Printf("login error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	token := s.sessions.Create(id)
	_ = s.trail.Record(audit.Event{Actor: id.Username, Action: "LOGIN_OK"})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: id.Username,
		FullName: id.FullName,
		Role:     id.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.sessions.Delete(bearerToken(r))
	_ = s.trail.Record(audit.Event{Actor: id.Username, Action: "LOGOUT"})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ── Records ──────────────────────────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req registerRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, created, err := s.directory.Register(r.Context(), req.Fields, id.Username)
	if err != nil {
		s.writeServiceError(w, "register", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, registerResponse{Created: created, Record: recordToResponse(rec)})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	rec, err := s.directory.Lookup(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// handleFilterRecords returns records in insertion order; sorted=true returns
// the full set ordered by identifier instead, ignoring filter predicates.
func (s *Server) handleFilterRecords(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	if r.URL.Query().Get("sorted") == "true" {
		recs := s.directory.ListOrdered()
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   len(recs),
			"records": recordsToResponse(recs),
		})
		return
	}

	recs := s.directory.Filter(queryFromValues(r.URL.Query()))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(recs),
		"records": recordsToResponse(recs),
	})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.mutateRecord(w, r, "activate", func(ctx context.Context, recID string) error {
		return s.directory.Activate(ctx, recID, id.Username)
	})
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.mutateRecord(w, r, "deactivate", func(ctx context.Context, recID string) error {
		return s.directory.Deactivate(ctx, recID, id.Username)
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	s.mutateRecord(w, r, "revoke", func(ctx context.Context, recID string) error {
		return s.directory.RevokeSpecial(ctx, recID, id.Username)
	})
}

func (s *Server) mutateRecord(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, recID string) error) {
	if err := fn(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	path, err := s.directory.Export(queryFromValues(r.URL.Query()), id.Username)
	if err != nil {
		if errors.Is(err, service.ErrExportUnsupported) {
			writeError(w, http.StatusConflict, "export_unsupported", err.Error())
			return
		}
		s.writeServiceError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// ── Reporting ────────────────────────────────────────────────────────────────

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	q := r.URL.Query()

	dimension := q.Get("dimension")
	if dimension == "" {
		dimension = "site"
	}
	topN := intParam(q.Get("top"), s.dashboardTopN)
	horizon := intParam(q.Get("horizon_days"), s.alertHorizonDays)

	counts, err := s.directory.CountBy(dimension)
	if err != nil {
		s.writeServiceError(w, "summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Total:     len(s.directory.ListOrdered()),
		Active:    s.directory.CountActive(),
		Dimension: dimension,
		Series:    seriesToResponse(rank.TopNWithOthers(counts, topN, OthersLabel)),
		Alerts:    alertsToResponse(s.directory.ExpiringAlerts(horizon)),
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	limit := intParam(r.URL.Query().Get("limit"), 12)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": auditToResponse(s.trail.Recent(limit)),
	})
}

// ── Error mapping ────────────────────────────────────────────────────────────

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrIdentifierRequired):
		writeError(w, http.StatusBadRequest, "identifier_required", err.Error())
	case errors.Is(err, service.ErrUnknownDimension):
		writeError(w, http.StatusBadRequest, "unknown_dimension", err.Error())
	case errors.Is(err, service.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "record_not_found", err.Error())
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func queryFromValues(q url.Values) service.Query {
	return service.Query{
		Text:               q.Get("q"),
		Site:               q.Get("site"),
		Department:         q.Get("department"),
		SubDepartment:      q.Get("sub_department"),
		AccessTier:         q.Get("access_tier"),
		SocialMedia:        q.Get("social_media_access"),
		VPN:                q.Get("vpn_active"),
		SpecialPermissions: q.Get("special_permissions_active"),
		Status:             q.Get("status"),
		IncludeInactive:    q.Get("include_inactive") == "true",
	}
}

func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
