package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"qatysu.org/internal/attendance"
	"qatysu.org/internal/auth"
	"qatysu.org/internal/badge"
	"qatysu.org/internal/directory"
	"qatysu.org/internal/stream"
	"qatysu.org/internal/verify"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

type testAPIOption func(*Options)

func withVerifier(v verify.Verifier) testAPIOption {
	return func(o *Options) { o.Verifier = v }
}

func withCodec(c *badge.Codec) testAPIOption {
	return func(o *Options) { o.Codec = c }
}

func newTestAPI(t *testing.T, opts ...testAPIOption) *apiClient {
	t.Helper()

	t.Setenv("QATYSU_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	codec, err := badge.New([]byte("badge-test-secret"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	passHash, err := auth.HashPassword("operator-pw")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	options := Options{
		Ready:             ReadyProbe{},
		Version:           "test",
		Codec:             codec,
		Ledger:            attendance.NewInMemory(),
		Directory:         directory.NewInMemory(),
		Verifier:          verify.Static{Verified: true},
		Stream:            stream.New(),
		AdminUser:         "admin",
		AdminPasswordHash: passHash,
		RateBurst:         100,
		RatePerSec:        100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	srv := httptest.NewServer(New(options).Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) obtainToken() string {
	c.t.Helper()
	resp := c.post("/v1/auth/token", map[string]any{
		"user":     "admin",
		"password": "operator-pw",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected token status: %d", resp.StatusCode)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.Token
}

func (c *apiClient) issueBadge(token, employeeID string) string {
	c.t.Helper()
	resp := c.post("/v1/badges", map[string]any{"employee_id": employeeID},
		map[string]string{"Authorization": "Bearer " + token})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected badge status: %d", resp.StatusCode)
	}
	var payload issueBadgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode badge response: %v", err)
	}
	return payload.Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestKioskScanFlow(t *testing.T) {
	api := newTestAPI(t)
	operator := api.obtainToken()
	authHeader := map[string]string{"Authorization": "Bearer " + operator}

	resp := api.post("/v1/employees", map[string]any{
		"id":   "emp-1",
		"name": "Aruzhan S.",
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	badgeToken := api.issueBadge(operator, "emp-1")

	// First scan of the day: check-in.
	resp = api.post("/v1/scans", map[string]any{
		"token":     badgeToken,
		"image_b64": "aW1hZ2U=",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected scan status: %d", resp.StatusCode)
	}
	scan := decode[scanResponse](t, resp)
	if scan.Outcome != attendance.OutcomeCheckedIn {
		t.Fatalf("expected checked_in, got %s", scan.Outcome)
	}

	// Second scan: check-out (each scan uses a fresh badge token).
	badgeToken = api.issueBadge(operator, "emp-1")
	resp = api.post("/v1/scans", map[string]any{
		"token":     badgeToken,
		"image_b64": "aW1hZ2U=",
	}, nil)
	scan = decode[scanResponse](t, resp)
	if scan.Outcome != attendance.OutcomeCheckedOut {
		t.Fatalf("expected checked_out, got %s", scan.Outcome)
	}
	if scan.CheckoutAt == nil {
		t.Fatal("expected checkout_at to be set")
	}

	// Third scan: terminal for the day.
	badgeToken = api.issueBadge(operator, "emp-1")
	resp = api.post("/v1/scans", map[string]any{
		"token":     badgeToken,
		"image_b64": "aW1hZ2U=",
	}, nil)
	scan = decode[scanResponse](t, resp)
	if scan.Outcome != attendance.OutcomeAlreadyCheckedOut {
		t.Fatalf("expected already_checked_out, got %s", scan.Outcome)
	}

	// Attendance listing reflects the single day record.
	resp = api.get("/v1/attendance", url.Values{"employee_id": []string{"emp-1"}}, authHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected attendance status: %d", resp.StatusCode)
	}
	listing := decode[listAttendanceResponse](t, resp)
	if len(listing.Items) != 1 {
		t.Fatalf("expected one record, got %d", len(listing.Items))
	}
	if listing.Items[0].CheckoutAt == nil {
		t.Fatal("expected record to be checked out")
	}
}

func TestScanRejectsForgedToken(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/scans", map[string]any{
		"token":     "bm90LWEtcmVhbC10b2tlbg",
		"image_b64": "aW1hZ2U=",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "invalid credential" {
		t.Fatalf("unexpected error body: %v", body["error"])
	}
}

func TestScanRejectsExpiredToken(t *testing.T) {
	clk := &fakeClock{now: time.Now().UTC()}
	codec, err := badge.New([]byte("badge-test-secret"), badge.WithClock(clk))
	if err != nil {
		t.Fatal(err)
	}
	api := newTestAPI(t, withCodec(codec))
	operator := api.obtainToken()

	resp := api.post("/v1/employees", map[string]any{"id": "emp-1", "name": "Aruzhan S."},
		map[string]string{"Authorization": "Bearer " + operator})
	resp.Body.Close()

	badgeToken := api.issueBadge(operator, "emp-1")
	clk.now = clk.now.Add(badge.DefaultMaxAge + 2*time.Second)

	resp = api.post("/v1/scans", map[string]any{
		"token":     badgeToken,
		"image_b64": "aW1hZ2U=",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "badge expired, please scan again" {
		t.Fatalf("unexpected error body: %v", body["error"])
	}
}

func TestScanUnknownEmployee(t *testing.T) {
	codec, err := badge.New([]byte("badge-test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	api := newTestAPI(t, withCodec(codec))

	// Signed for an employee the directory has never seen.
	token, err := codec.Issue("ghost")
	if err != nil {
		t.Fatal(err)
	}
	resp := api.post("/v1/scans", map[string]any{
		"token":     token,
		"image_b64": "aW1hZ2U=",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestScanFaceMismatch(t *testing.T) {
	api := newTestAPI(t, withVerifier(verify.Static{Verified: false}))
	operator := api.obtainToken()

	resp := api.post("/v1/employees", map[string]any{"id": "emp-1", "name": "Aruzhan S."},
		map[string]string{"Authorization": "Bearer " + operator})
	resp.Body.Close()

	badgeToken := api.issueBadge(operator, "emp-1")
	resp = api.post("/v1/scans", map[string]any{
		"token":     badgeToken,
		"image_b64": "aW1hZ2U=",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/employees", map[string]any{
		"id":   "emp-1",
		"name": "Aruzhan S.",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/token", map[string]any{
		"user":     "admin",
		"password": "wrong",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBadgeForUnknownEmployee(t *testing.T) {
	api := newTestAPI(t)
	operator := api.obtainToken()

	resp := api.post("/v1/badges", map[string]any{"employee_id": "ghost"},
		map[string]string{"Authorization": "Bearer " + operator})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestBadgePNGFormat(t *testing.T) {
	api := newTestAPI(t)
	operator := api.obtainToken()

	resp := api.post("/v1/employees", map[string]any{"id": "emp-1", "name": "Aruzhan S."},
		map[string]string{"Authorization": "Bearer " + operator})
	resp.Body.Close()

	resp = api.post("/v1/badges?format=png", map[string]any{"employee_id": "emp-1"},
		map[string]string{"Authorization": "Bearer " + operator})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type: %s", ct)
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/healthz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "qatysu-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}
}
