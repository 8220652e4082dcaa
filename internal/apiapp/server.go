package apiapp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/saif-almayahi/muroor/internal/export"
	"github.com/saif-almayahi/muroor/internal/gate"
	"github.com/saif-almayahi/muroor/internal/middleware"
	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/saif-almayahi/muroor/internal/report"
)

const (
	sessionCookieName = "muroor_session"
	csrfHeaderName    = "X-CSRF-Token"
	dateLayout        = "2006-01-02"
)

type contextKey string

const sessionContextKey contextKey = "session"

var errUnknownReport = errors.New("unknown report")

type Config struct {
	Addr           string
	MasterPassword string
	SessionTTL     time.Duration
}

func DefaultConfigFromEnv() Config {
	return Config{
		Addr:           envOrDefault("API_ADDR", ":8080"),
		MasterPassword: os.Getenv("MASTER_PASSWORD"),
		SessionTTL:     12 * time.Hour,
	}
}

type accessRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type accessSubmitRequest struct {
	Password string `json:"password"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type createJudgmentRequest struct {
	DecisionText  string `json:"decisionText"`
	ViolatorName  string `json:"violatorName"`
	FineAmount    int64  `json:"fineAmount"`
	ViolationDate string `json:"violationDate"`
	PhotoDataURI  string `json:"photoDataUri,omitempty"`
}

type updatePasswordsRequest struct {
	Master        *string           `json:"master,omitempty"`
	Pages         map[string]string `json:"pages,omitempty"`
	Precincts     map[string]string `json:"precincts,omitempty"`
	WeighStations map[string]string `json:"weighStations,omitempty"`
	Radars        map[string]string `json:"radars,omitempty"`
}

type analysisRow struct {
	registry.AccidentAnalysis
	PrecinctName string `json:"precinctName"`
}

type closureRow struct {
	registry.RoadClosure
	PrecinctName string `json:"precinctName"`
}

type activityRow struct {
	registry.Activity
	PrecinctName string `json:"precinctName"`
}

type judgmentRow struct {
	registry.JudgmentDecision
	SourceName string `json:"sourceName"`
	SourceKind string `json:"sourceKind"`
}

type sessionRecord struct {
	ID        string
	CSRFToken string
	ExpiresAt time.Time
}

// server owns the single dashboard session: one store, one gate, one
// writer at a time. The mutex serializes every handler touching them.
type server struct {
	mu         sync.Mutex
	store      *registry.Store
	gate       *gate.Gate
	sessions   map[string]*sessionRecord
	sessionTTL time.Duration
}

func newServer(cfg Config) (*server, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	s := &server{
		store:      registry.NewStore(),
		gate:       gate.New(),
		sessions:   make(map[string]*sessionRecord),
		sessionTTL: cfg.SessionTTL,
	}
	if cfg.MasterPassword != "" {
		if err := s.gate.SetSecret(gate.ControlPanel(), cfg.MasterPassword); err != nil {
			return nil, fmt.Errorf("set master password: %w", err)
		}
	}
	return s, nil
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/health", http.HandlerFunc(s.health))
	mux.Handle("/api/auth/login", http.HandlerFunc(s.login))
	mux.Handle("/api/auth/logout", middleware.Chain(http.HandlerFunc(s.logout), s.requireSession))
	mux.Handle("/api/auth/csrf", middleware.Chain(http.HandlerFunc(s.csrfToken), s.requireSession))
	mux.Handle("/api/access/request", http.HandlerFunc(s.accessRequestHandler))
	mux.Handle("/api/access/submit", http.HandlerFunc(s.accessSubmitHandler))
	mux.Handle("/api/access/cancel", http.HandlerFunc(s.accessCancelHandler))
	mux.Handle("/api/access/pending", http.HandlerFunc(s.accessPendingHandler))
	mux.Handle("/api/precincts", http.HandlerFunc(s.listPrecincts))
	mux.Handle("/api/precincts/", http.HandlerFunc(s.precinctHandler))
	mux.Handle("/api/weigh-stations", http.HandlerFunc(s.listWeighStations))
	mux.Handle("/api/weigh-stations/", http.HandlerFunc(s.weighStationHandler))
	mux.Handle("/api/radars", http.HandlerFunc(s.listRadars))
	mux.Handle("/api/radars/", http.HandlerFunc(s.radarHandler))
	mux.Handle("/api/registry/vehicles", http.HandlerFunc(s.vehiclesHandler))
	mux.Handle("/api/registry/licenses", http.HandlerFunc(s.licensesHandler))
	mux.Handle("/api/registry/summary", http.HandlerFunc(s.registrySummary))
	mux.Handle("/api/reports/", http.HandlerFunc(s.reportsHandler))
	mux.Handle("/api/export/", http.HandlerFunc(s.exportHandler))
	mux.Handle("/api/photos", http.HandlerFunc(s.photoHandler))
	mux.Handle("/api/admin/passwords", middleware.Chain(http.HandlerFunc(s.passwordsHandler), s.requireSession, s.csrfProtect))
	mux.Handle("/api/admin/backup", middleware.Chain(http.HandlerFunc(s.backupHandler), s.requireSession))
	mux.Handle("/api/admin/restore", middleware.Chain(http.HandlerFunc(s.restoreHandler), s.requireSession, s.csrfProtect))

	csp := strings.Join([]string{
		"default-src 'self'",
		"img-src 'self' data:",
		"frame-ancestors 'none'",
	}, "; ")

	return middleware.Chain(
		mux,
		middleware.RequestLog,
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	)
}

func Run(ctx context.Context, cfg Config) error {
	s, err := newServer(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on http://localhost%s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- access gate ----

func parseResource(req accessRequest) (gate.Resource, error) {
	kind := gate.Kind(strings.TrimSpace(req.Type))
	switch kind {
	case gate.KindControlPanel:
		return gate.ControlPanel(), nil
	case gate.KindPage, gate.KindPrecinct, gate.KindWeighStation, gate.KindRadar:
		id := strings.TrimSpace(req.ID)
		if id == "" {
			return gate.Resource{}, errors.New("id is required")
		}
		return gate.Resource{Kind: kind, ID: id}, nil
	}
	return gate.Resource{}, fmt.Errorf("unknown resource type %q", req.Type)
}

func (s *server) accessRequestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := parseResource(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	decision, err := s.gate.Request(res)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *server) accessSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req accessSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	res, err := s.gate.Submit(req.Password)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, gate.ErrNoChallenge) {
			writeError(w, http.StatusConflict, "no pending challenge")
			return
		}
		writeError(w, http.StatusUnauthorized, "كلمة المرور غير صحيحة")
		return
	}

	if res.Kind == gate.KindControlPanel {
		if err := s.issueSession(w); err != nil {
			writeError(w, http.StatusInternalServerError, "authentication failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"granted": true, "resource": res})
}

func (s *server) accessCancelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.gate.Cancel()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "cancelled"})
}

func (s *server) accessPendingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	pending := s.gate.Pending()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// ---- control-panel sessions ----

// login collapses request+submit for the control panel into one call. An
// unprotected panel grants without inspecting the candidate, matching the
// gate's no-password-means-open rule.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	decision, err := s.gate.Request(gate.ControlPanel())
	if err == nil && !decision.Granted {
		_, err = s.gate.Submit(req.Password)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "كلمة المرور غير صحيحة")
		return
	}

	if err := s.issueSession(w); err != nil {
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "authenticated"})
}

func (s *server) issueSession(w http.ResponseWriter) error {
	sessionID, err := randomToken(32)
	if err != nil {
		return err
	}
	csrfToken, err := randomToken(32)
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(s.sessionTTL)

	s.mu.Lock()
	s.sessions[sessionID] = &sessionRecord{ID: sessionID, CSRFToken: csrfToken, ExpiresAt: expires}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.sessionTTL.Seconds()),
		Expires:  expires,
	})
	return nil
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sess := sessionFromContext(r.Context()); sess != nil {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
	}
	expireSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (s *server) csrfToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := sessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": sess.CSRFToken})
}

func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		s.mu.Lock()
		sess, ok := s.sessions[cookie.Value]
		if ok && time.Now().UTC().After(sess.ExpiresAt) {
			delete(s.sessions, cookie.Value)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			expireSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}
		sess := sessionFromContext(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		token := strings.TrimSpace(r.Header.Get(csrfHeaderName))
		if token == "" || token != sess.CSRFToken {
			writeError(w, http.StatusForbidden, "csrf validation failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---- entity lists ----

func (s *server) listPrecincts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"precincts": registry.PrecinctNames})
}

func (s *server) listWeighStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weighStations": registry.WeighStationNames})
}

func (s *server) listRadars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"radars": registry.RadarLocations})
}

// ---- per-entity collections ----

func splitEntityPath(r *http.Request, prefix string) (name, section, rest string, err error) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if trimmed == "" {
		return "", "", "", errors.New("missing entity name")
	}
	parts := strings.SplitN(trimmed, "/", 3)
	name, err = url.PathUnescape(parts[0])
	if err != nil || strings.TrimSpace(name) == "" {
		return "", "", "", errors.New("invalid entity name")
	}
	if len(parts) > 1 {
		section = parts[1]
	}
	if len(parts) > 2 {
		rest = parts[2]
	}
	return name, section, rest, nil
}

func (s *server) precinctHandler(w http.ResponseWriter, r *http.Request) {
	name, section, rest, err := splitEntityPath(r, "/api/precincts/")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case section == "violations" && rest == "":
		s.violationsEndpoint(w, r, name, registry.ViolationNames,
			s.store.PrecinctViolations, s.store.UpdatePrecinctViolations)
	case section == "violations" && rest == "import":
		s.importViolations(w, r, name)
	case section == "radar-violations" && rest == "":
		s.violationsEndpoint(w, r, name, registry.RadarViolationNames,
			s.store.RadarViolations, s.store.UpdateRadarViolations)
	case section == "accidents" && rest == "":
		s.accidentsEndpoint(w, r, name)
	case section == "closures" && rest == "":
		collectionEndpoint(s, w, r, name, s.store.Closures, s.store.UpdateClosures)
	case section == "activities" && rest == "":
		collectionEndpoint(s, w, r, name, s.store.Activities, s.store.UpdateActivities)
	case section == "judgments" && rest == "":
		s.judgmentsEndpoint(w, r, name, s.store.PrecinctJudgments, s.store.UpdatePrecinctJudgments)
	default:
		http.NotFound(w, r)
	}
}

func (s *server) weighStationHandler(w http.ResponseWriter, r *http.Request) {
	name, section, rest, err := splitEntityPath(r, "/api/weigh-stations/")
	if err != nil || rest != "" {
		http.NotFound(w, r)
		return
	}

	switch section {
	case "violations":
		s.violationsEndpoint(w, r, name, registry.WeighStationViolationNames,
			s.store.StationViolations, s.store.UpdateStationViolations)
	case "judgments":
		s.judgmentsEndpoint(w, r, name, s.store.StationJudgments, s.store.UpdateStationJudgments)
	default:
		http.NotFound(w, r)
	}
}

func (s *server) radarHandler(w http.ResponseWriter, r *http.Request) {
	name, section, rest, err := splitEntityPath(r, "/api/radars/")
	if err != nil || rest != "" || section != "judgments" {
		http.NotFound(w, r)
		return
	}
	s.judgmentsEndpoint(w, r, name, s.store.RadarJudgments, s.store.UpdateRadarJudgments)
}

// validateViolationRows checks that a replacement slice keeps the fixed
// template shape: same length, same names, same 1-based IDs, same order.
func validateViolationRows(rows []registry.ViolationRow, names []string) error {
	if len(rows) != len(names) {
		return fmt.Errorf("expected %d rows, got %d", len(names), len(rows))
	}
	for i, row := range rows {
		if row.Name != names[i] {
			return fmt.Errorf("row %d: expected violation %q", i+1, names[i])
		}
		if row.ID != i+1 {
			return fmt.Errorf("row %d: expected id %d", i+1, i+1)
		}
	}
	return nil
}

func (s *server) violationsEndpoint(w http.ResponseWriter, r *http.Request, name string, template []string,
	read func(string) []registry.ViolationRow, update func(string, []registry.ViolationRow) error) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		rows := read(name)
		s.mu.Unlock()
		if len(rows) == 0 {
			writeError(w, http.StatusNotFound, "unknown entity")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entityName": name, "violations": rows})
	case http.MethodPut:
		var rows []registry.ViolationRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateViolationRows(rows, template); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.mu.Lock()
		err := update(name, rows)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func collectionEndpoint[T any](s *server, w http.ResponseWriter, r *http.Request, name string,
	read func(string) []T, update func(string, []T) error) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		rows := read(name)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"entityName": name, "rows": rows})
	case http.MethodPut:
		var rows []T
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.mu.Lock()
		err := update(name, rows)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) accidentsEndpoint(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		data := s.store.Accidents(name)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, data)
	case http.MethodPut:
		var data registry.AccidentData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.mu.Lock()
		err := s.store.UpdateAccidents(name, data)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) judgmentsEndpoint(w http.ResponseWriter, r *http.Request, name string,
	read func(string) []registry.JudgmentDecision, update func(string, []registry.JudgmentDecision) error) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		rows := read(name)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"entityName": name, "judgments": rows})
	case http.MethodPut:
		var rows []registry.JudgmentDecision
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.mu.Lock()
		err := update(name, rows)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	case http.MethodPost:
		var req createJudgmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.DecisionText) == "" || strings.TrimSpace(req.ViolatorName) == "" {
			writeError(w, http.StatusBadRequest, "decisionText and violatorName are required")
			return
		}
		decision := registry.JudgmentDecision{
			ID:            time.Now().UTC().Format(time.RFC3339Nano),
			DecisionText:  req.DecisionText,
			ViolatorName:  req.ViolatorName,
			FineAmount:    req.FineAmount,
			ViolationDate: req.ViolationDate,
			PhotoDataURI:  req.PhotoDataURI,
		}
		if decision.ViolationDate == "" {
			decision.ViolationDate = time.Now().Format(dateLayout)
		}

		s.mu.Lock()
		rows := read(name)
		rows = append(rows, decision)
		err := update(name, rows)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, decision)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- import + photo intake ----

func (s *server) importViolations(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("sheet")
	if err != nil {
		writeError(w, http.StatusBadRequest, "sheet file is required")
		return
	}
	defer file.Close()

	rows, err := export.ParseViolationRows(file, header.Filename, registry.ViolationTemplate(registry.ViolationNames))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	err = s.store.UpdatePrecinctViolations(name, rows)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Printf("imported violation sheet %q into %s", header.Filename, name)
	writeJSON(w, http.StatusOK, map[string]any{"entityName": name, "violations": rows})
}

func (s *server) photoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read photo file")
		return
	}
	dataURI, err := processEvidencePhoto(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photoDataUri": dataURI})
}

// ---- vehicle/license registry ----

func (s *server) vehiclesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		rows := s.store.Vehicles()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "totals": report.VehicleRegistryTotal(rows)})
	case http.MethodPut:
		var rows []registry.VehicleRegistryRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.mu.Lock()
		s.store.UpdateVehicles(rows)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) licensesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		rows := s.store.Licenses()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "totals": report.LicenseRegistryTotal(rows)})
	case http.MethodPut:
		var rows []registry.LicenseRegistryRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.mu.Lock()
		s.store.UpdateLicenses(rows)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) registrySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	vehicles := s.store.Vehicles()
	licenses := s.store.Licenses()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"vehicles":      vehicles,
		"vehicleTotals": report.VehicleRegistryTotal(vehicles),
		"licenses":      licenses,
		"licenseTotals": report.LicenseRegistryTotal(licenses),
	})
}

// ---- reports ----

func (s *server) reportsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/reports/"), "/")
	switch key {
	case "total-violations":
		names := r.URL.Query()["names"]
		s.mu.Lock()
		collections := s.store.AllPrecinctViolations()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, report.CrossEntityTotal(collections, registry.ViolationNames, names))
	case "precincts-summary":
		s.mu.Lock()
		collections := s.store.AllPrecinctViolations()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": report.PerEntitySummary(collections)})
	case "detailed":
		shift, err := report.ParseShift(r.URL.Query().Get("shift"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.mu.Lock()
		collections := s.store.AllPrecinctViolations()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, report.DetailedSummary(collections, shift))
	case "weigh-stations":
		s.mu.Lock()
		collections := s.store.AllStationViolations()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, report.CrossEntityTotal(collections, registry.WeighStationViolationNames, nil))
	case "radars":
		s.mu.Lock()
		collections := s.store.AllRadarViolations()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, report.CrossEntityTotal(collections, registry.RadarViolationNames, nil))
	case "accidents":
		s.accidentsReport(w, r)
	case "closures":
		s.mu.Lock()
		rows := s.closureRows()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	case "activities":
		s.mu.Lock()
		rows := s.activityRows()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	case "judgments":
		s.mu.Lock()
		rows := s.judgmentRows()
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	default:
		http.NotFound(w, r)
	}
}

func (s *server) accidentsReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	startRaw := query.Get("start")
	endRaw := query.Get("end")

	s.mu.Lock()
	perPrecinct := s.store.AllAccidents()
	s.mu.Unlock()

	totals := report.AccidentSummary(perPrecinct)
	analysis := flattenAnalysis(perPrecinct)

	if startRaw != "" || endRaw != "" {
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		end, err := time.Parse(dateLayout, endRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		filtered, err := filterAnalysisRows(analysis, start, end)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "تاريخ البدء يجب أن يكون قبل تاريخ الانتهاء.")
			return
		}
		analysis = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"totals": totals, "analysis": analysis})
}

func filterAnalysisRows(rows []analysisRow, start, end time.Time) ([]analysisRow, error) {
	bare := make([]registry.AccidentAnalysis, len(rows))
	for i, row := range rows {
		bare[i] = row.AccidentAnalysis
	}
	kept, err := report.FilterAnalysisByDate(bare, start, end)
	if err != nil {
		return nil, err
	}
	keptIDs := make(map[string]bool, len(kept))
	for _, row := range kept {
		keptIDs[row.ID] = true
	}
	out := make([]analysisRow, 0, len(kept))
	for _, row := range rows {
		if keptIDs[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func flattenAnalysis(perPrecinct map[string]registry.AccidentData) []analysisRow {
	var out []analysisRow
	for _, precinct := range registry.PrecinctNames {
		data, ok := perPrecinct[precinct]
		if !ok {
			continue
		}
		for _, row := range data.Analysis {
			out = append(out, analysisRow{AccidentAnalysis: row, PrecinctName: precinct})
		}
	}
	return out
}

// closureRows flattens per-precinct closures, dropping the untouched
// placeholder rows the store seeds.
func (s *server) closureRows() []closureRow {
	var out []closureRow
	perPrecinct := s.store.AllClosures()
	for _, precinct := range registry.PrecinctNames {
		for _, row := range perPrecinct[precinct] {
			if row.Location == "" && row.Reason == "" {
				continue
			}
			out = append(out, closureRow{RoadClosure: row, PrecinctName: precinct})
		}
	}
	return out
}

func (s *server) activityRows() []activityRow {
	var out []activityRow
	perPrecinct := s.store.AllActivities()
	for _, precinct := range registry.PrecinctNames {
		for _, row := range perPrecinct[precinct] {
			if row.Name == "" && row.Location == "" {
				continue
			}
			out = append(out, activityRow{Activity: row, PrecinctName: precinct})
		}
	}
	return out
}

func (s *server) judgmentRows() []judgmentRow {
	var out []judgmentRow
	appendAll := func(perEntity map[string][]registry.JudgmentDecision, order []string, kind string) {
		for _, name := range order {
			for _, decision := range perEntity[name] {
				out = append(out, judgmentRow{JudgmentDecision: decision, SourceName: name, SourceKind: kind})
			}
		}
	}
	appendAll(s.store.AllPrecinctJudgments(), registry.PrecinctNames, "precinct")
	appendAll(s.store.AllStationJudgments(), registry.WeighStationNames, "weigh_station")
	appendAll(s.store.AllRadarJudgments(), registry.RadarLocations, "radar")
	return out
}

// ---- excel export ----

func (s *server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/export/"), "/")

	tables, err := s.exportTables(key, r)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrInvalidDateRange):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, errUnknownReport):
			http.NotFound(w, r)
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	buf, err := export.Workbook(tables...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unable to build workbook")
		return
	}

	filename := strings.ReplaceAll(key, "-", "_") + "_report.xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) exportTables(key string, r *http.Request) ([]export.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "total-violations":
		rep := report.CrossEntityTotal(s.store.AllPrecinctViolations(), registry.ViolationNames, r.URL.Query()["names"])
		return []export.Table{violationTotalsTable("المجموع الكلي للمخالفات", rep)}, nil
	case "precincts-summary":
		rows := report.PerEntitySummary(s.store.AllPrecinctViolations())
		return []export.Table{perEntitySummaryTable("ملخص مواقف القواطع", "اسم القاطع", rows)}, nil
	case "detailed":
		shift, err := report.ParseShift(r.URL.Query().Get("shift"))
		if err != nil {
			return nil, err
		}
		return []export.Table{detailedSummaryTable(report.DetailedSummary(s.store.AllPrecinctViolations(), shift))}, nil
	case "weigh-stations":
		rep := report.CrossEntityTotal(s.store.AllStationViolations(), registry.WeighStationViolationNames, nil)
		return []export.Table{violationTotalsTable("ملخص محطات الوزن", rep)}, nil
	case "radars":
		rep := report.CrossEntityTotal(s.store.AllRadarViolations(), registry.RadarViolationNames, nil)
		return []export.Table{violationTotalsTable("ملخص الرادارات", rep)}, nil
	case "accidents":
		perPrecinct := s.store.AllAccidents()
		analysis := flattenAnalysis(perPrecinct)
		startRaw := r.URL.Query().Get("start")
		endRaw := r.URL.Query().Get("end")
		if startRaw != "" || endRaw != "" {
			start, err := time.Parse(dateLayout, startRaw)
			if err != nil {
				return nil, err
			}
			end, err := time.Parse(dateLayout, endRaw)
			if err != nil {
				return nil, err
			}
			analysis, err = filterAnalysisRows(analysis, start, end)
			if err != nil {
				return nil, err
			}
		}
		return accidentTables(report.AccidentSummary(perPrecinct), analysis), nil
	case "closures":
		return []export.Table{closuresTable(s.closureRows())}, nil
	case "activities":
		return []export.Table{activitiesTable(s.activityRows())}, nil
	case "judgments":
		return []export.Table{judgmentsTable(s.judgmentRows())}, nil
	case "registry":
		vehicles := s.store.Vehicles()
		licenses := s.store.Licenses()
		return []export.Table{
			vehicleRegistryTable(vehicles, report.VehicleRegistryTotal(vehicles)),
			licenseRegistryTable(licenses, report.LicenseRegistryTotal(licenses)),
		}, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownReport, key)
}

// ---- control panel ----

func (s *server) passwordsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"master":        s.protected(gate.ControlPanel()),
			"pages":         s.protectionMap(gate.KindPage, pageKeys()),
			"precincts":     s.protectionMap(gate.KindPrecinct, registry.PrecinctNames),
			"weighStations": s.protectionMap(gate.KindWeighStation, registry.WeighStationNames),
			"radars":        s.protectionMap(gate.KindRadar, registry.RadarLocations),
		})
	case http.MethodPut:
		var req updatePasswordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if req.Master != nil {
			if err := s.gate.SetSecret(gate.ControlPanel(), *req.Master); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		sections := []struct {
			kind    gate.Kind
			secrets map[string]string
		}{
			{gate.KindPage, req.Pages},
			{gate.KindPrecinct, req.Precincts},
			{gate.KindWeighStation, req.WeighStations},
			{gate.KindRadar, req.Radars},
		}
		for _, section := range sections {
			for id, secret := range section.secrets {
				if err := s.gate.SetSecret(gate.Resource{Kind: section.kind, ID: id}, secret); err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) protected(res gate.Resource) bool {
	p, err := s.gate.Protected(res)
	return err == nil && p
}

func (s *server) protectionMap(kind gate.Kind, ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = s.protected(gate.Resource{Kind: kind, ID: id})
	}
	return out
}

func pageKeys() []string {
	keys := make([]string, 0, len(registry.PageTitles))
	for key := range registry.PageTitles {
		keys = append(keys, key)
	}
	return keys
}

func (s *server) backupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	snap := s.store.Snapshot()
	s.mu.Unlock()

	data, err := export.EncodeSnapshot(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unable to encode snapshot")
		return
	}
	filename := "muroor_backup_" + time.Now().Format("20060102_150405") + ".json.xz"
	w.Header().Set("Content-Type", "application/x-xz")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

func (s *server) restoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := export.DecodeSnapshot(io.LimitReader(r.Body, 50<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot file")
		return
	}
	s.mu.Lock()
	s.store.Restore(snap)
	s.mu.Unlock()
	log.Printf("restored state snapshot")
	writeJSON(w, http.StatusOK, map[string]string{"message": "restored"})
}

// ---- helpers ----

func sessionFromContext(ctx context.Context) *sessionRecord {
	raw := ctx.Value(sessionContextKey)
	if raw == nil {
		return nil
	}
	record, ok := raw.(*sessionRecord)
	if !ok {
		return nil
	}
	return record
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func expireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
