package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClientVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.EmployeeID != "emp-1" {
			t.Errorf("unexpected employee id: %s", req.EmployeeID)
		}
		_ = json.NewEncoder(w).Encode(verifyResponse{Verified: true, Score: 0.97})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := c.Verify(context.Background(), "emp-1", "aW1hZ2U=")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected verified")
	}
}

func TestHTTPClientVerifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(verifyResponse{Verified: false, Score: 0.12})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := c.Verify(context.Background(), "emp-1", "aW1hZ2U=")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected rejection")
	}
}

func TestHTTPClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Verify(context.Background(), "emp-1", "aW1hZ2U="); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestNewHTTPClientRequiresURL(t *testing.T) {
	if _, err := NewHTTPClient("  "); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
