package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"clubcal/internal/config"
	"clubcal/internal/ics"
	appLog "clubcal/internal/log"
	"clubcal/internal/model"
	"clubcal/internal/roster"
	"clubcal/internal/schedule"
)

// Server exposes the aggregated club calendar over HTTP: day markings,
// per-day occurrence lists, the club roster, an iCalendar export and a
// rendered PNG snapshot.
type Server struct {
	cfg    *config.Config
	loader *roster.Loader
	mux    *http.ServeMux

	// now is injectable so handler tests do not depend on wall-clock time.
	now func() time.Time

	// snapshot is the current joined-clubs roster. Handlers read it and
	// hand the value to the aggregation engine; only Reload replaces it.
	snapMu   sync.RWMutex
	snapshot roster.Snapshot

	// markings responses are cached briefly as a UI optimization. The
	// aggregation engine itself stays cache-free.
	markMu    sync.RWMutex
	markCache *markingsCache
}

// embeddedStatic contains the static calendar page served at /.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, loader *roster.Loader) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server, with basic auth
// applied when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Reload fetches a fresh roster snapshot and invalidates the markings
// cache. A failed load keeps the previous snapshot.
func (s *Server) Reload(ctx context.Context) error {
	snap, err := s.loader.Load(ctx, s.cfg.Roster)
	if err != nil {
		return err
	}

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.markMu.Lock()
	s.markCache = nil
	s.markMu.Unlock()

	return nil
}

func (s *Server) clubs() []model.Club {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot.Clubs
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always reachable unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="ClubCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/clubs", s.handleClubs)
	s.mux.HandleFunc("/api/markings", s.handleMarkings)
	s.mux.HandleFunc("/api/day", s.handleDay)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/snapshot.png", s.handleSnapshot)

	// Static calendar page; everything outside /api/* falls back here.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// clubDTO is the JSON summary of one club in the current snapshot.
type clubDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Meetings int    `json:"meetings"`
	Events   int    `json:"events"`
}

func (s *Server) handleClubs(w http.ResponseWriter, _ *http.Request) {
	clubs := s.clubs()

	dtos := make([]clubDTO, 0, len(clubs))
	for _, club := range clubs {
		dtos = append(dtos, clubDTO{
			ID:       club.ID,
			Name:     displayName(club.Name),
			Meetings: len(club.Meetings),
			Events:   len(club.Events),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// markingsResponse is the JSON response shape for /api/markings.
type markingsResponse struct {
	WindowStart string                   `json:"window_start"`
	WindowEnd   string                   `json:"window_end"`
	Timezone    string                   `json:"timezone"`
	Days        map[string]model.DayMark `json:"days"`
}

// markingsCache holds one cached /api/markings response.
type markingsCache struct {
	days      int
	resp      markingsResponse
	updatedAt time.Time
}

// handleMarkings returns the per-day mark map for the forward window.
//
// GET /api/markings?days=90
//   - days: window length in days (defaults to config window_days)
func (s *Server) handleMarkings(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.WindowDays)
	if days < 0 {
		writeError(w, http.StatusBadRequest, "days must not be negative")
		return
	}

	const cacheTTL = 30 * time.Second
	s.markMu.RLock()
	mc := s.markCache
	s.markMu.RUnlock()
	if mc != nil && mc.days == days && s.now().Sub(mc.updatedAt) < cacheTTL {
		writeJSON(w, http.StatusOK, mc.resp)
		return
	}

	loc := resolveLocationOrLocal(s.cfg.Timezone)
	today := model.DateOf(s.now().In(loc))

	marks, err := schedule.BuildDayMarkings(s.clubs(), today, days)
	if err != nil {
		appLog.Error("markings build failed", err, "days", days)
		writeError(w, http.StatusInternalServerError, "failed to build markings")
		return
	}

	dayMap := make(map[string]model.DayMark, len(marks))
	for day, mark := range marks {
		dayMap[day.String()] = mark
	}

	resp := markingsResponse{
		WindowStart: today.String(),
		WindowEnd:   today.AddDays(days).String(),
		Timezone:    loc.String(),
		Days:        dayMap,
	}

	s.markMu.Lock()
	s.markCache = &markingsCache{days: days, resp: resp, updatedAt: s.now()}
	s.markMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// occurrenceDTO is a JSON-friendly view of one occurrence, with the
// display fallbacks applied here at the presentation boundary.
type occurrenceDTO struct {
	Kind        model.OccurrenceKind `json:"kind"`
	ClubID      string               `json:"club_id"`
	ClubName    string               `json:"club_name"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Location    string               `json:"location,omitempty"`
	StartsAt    time.Time            `json:"starts_at"`
	Status      model.EventStatus    `json:"status"`
	CalendarURL string               `json:"calendar_url"`
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date        string          `json:"date"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

// handleDay returns everything happening on one day.
//
// GET /api/day?date=2024-06-05
//
// A malformed or missing date is answered with an empty occurrence list,
// matching the calendar UI's expectation that nothing ever hard-fails on
// bad input.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	day, err := model.ParseDate(raw)
	if err != nil {
		appLog.Warn("day query with malformed date", "date", raw)
		writeJSON(w, http.StatusOK, dayResponse{Date: raw, Occurrences: []occurrenceDTO{}})
		return
	}

	occs := schedule.OccurrencesForDay(s.clubs(), day)
	now := s.now()

	dtos := make([]occurrenceDTO, 0, len(occs))
	for _, occ := range occs {
		dtos = append(dtos, occurrenceDTO{
			Kind:        occ.Kind,
			ClubID:      occ.ClubID,
			ClubName:    displayName(occ.ClubName),
			Title:       occ.Title,
			Description: occ.Description,
			Location:    occ.Location,
			StartsAt:    occ.StartsAt,
			Status:      model.StatusAt(occ.StartsAt, now),
			CalendarURL: ics.GoogleCalendarLink(occ),
		})
	}

	writeJSON(w, http.StatusOK, dayResponse{Date: day.String(), Occurrences: dtos})
}

// handleICS exports the whole window as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.WindowDays)
	if days < 0 {
		writeError(w, http.StatusBadRequest, "days must not be negative")
		return
	}

	loc := resolveLocationOrLocal(s.cfg.Timezone)
	today := model.DateOf(s.now().In(loc))
	clubs := s.clubs()

	occurrences := make([]model.Occurrence, 0)
	for i := 0; i <= days; i++ {
		occurrences = append(occurrences, schedule.OccurrencesForDay(clubs, today.AddDays(i))...)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="clubcal.ics"`)
	_, _ = w.Write([]byte(ics.BuildCalendar(occurrences)))
}

// handleSnapshot serves the last rendered PNG snapshot from the cache
// dir. 404 when no snapshot has been captured yet.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.CacheDir, "snapshot.png"))
}

// staticFileServer serves the embedded calendar page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall through to the static page.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// displayName applies the "Unnamed Club" fallback at the presentation
// boundary; the aggregation engine never fabricates names.
func displayName(name string) string {
	if name == "" {
		return "Unnamed Club"
	}
	return name
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
