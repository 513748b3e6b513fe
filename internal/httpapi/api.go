package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"qatysu.org/internal/attendance"
	"qatysu.org/internal/badge"
	"qatysu.org/internal/directory"
	"qatysu.org/internal/obs"
	"qatysu.org/internal/stream"
	"qatysu.org/internal/verify"
)

// ReadyProbe is a simple readiness check (e.g. ping the database).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators together at startup.
type Options struct {
	Ready             ReadyProbe
	Version           string
	Codec             *badge.Codec
	Ledger            attendance.Service
	Directory         directory.Service
	Verifier          verify.Verifier
	Stream            *stream.Stream
	AdminUser         string
	AdminPasswordHash string
	RateBurst         int
	RatePerSec        int
}

// API is the HTTP layer over the badge codec and attendance ledger.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	codec    *badge.Codec
	ledger   attendance.Service
	dir      directory.Service
	verifier verify.Verifier
	stream   *stream.Stream

	adminUser     string
	adminPassHash string
	rateBurst     int
	ratePerSec    int
}

func New(opts Options) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    opts.Ready,
		version:       opts.Version,
		codec:         opts.Codec,
		ledger:        opts.Ledger,
		dir:           opts.Directory,
		verifier:      opts.Verifier,
		stream:        opts.Stream,
		adminUser:     opts.AdminUser,
		adminPassHash: opts.AdminPasswordHash,
		rateBurst:     opts.RateBurst,
		ratePerSec:    opts.RatePerSec,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// kiosk flow
	a.mux.HandleFunc("/v1/scans", a.handleScans)
	a.mux.HandleFunc("/v1/scans/stream", a.StreamScans)

	// management surface
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)
	a.mux.HandleFunc("/v1/employees", a.handleEmployeesCollection)
	a.mux.HandleFunc("/v1/employees/", a.handleEmployeeResource)
	a.mux.HandleFunc("/v1/badges", a.handleBadges)
	a.mux.HandleFunc("/v1/attendance", a.handleAttendance)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 10<<20) // kiosk requests carry a base64 face image
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "qatysu-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "qatysu-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 10<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
