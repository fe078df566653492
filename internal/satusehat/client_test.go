package satusehat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) { return string(s), nil }

type failingTokens struct{}

func (failingTokens) Token(ctx context.Context) (string, error) {
	return "", errors.New("grant failed")
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Tokens: staticTokens("t")}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := New(Config{BaseURL: "https://fhir"}); err == nil {
		t.Error("expected error for missing token source")
	}
}

func TestSendInjectsBearerAndContentType(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "enc-1", "resourceType": "Encounter"})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Tokens: staticTokens("token-xyz")})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp := client.Post(context.Background(), "Encounter", map[string]string{"resourceType": "Encounter"})
	if !resp.Success {
		t.Fatalf("expected success, got status %d", resp.StatusCode)
	}
	if gotAuth != "Bearer token-xyz" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected application/json, got %q", gotContentType)
	}
	if resp.ResourceID() != "enc-1" {
		t.Errorf("expected resource id enc-1, got %q", resp.ResourceID())
	}
}

func TestPatchNegotiatesJSONPatch(t *testing.T) {
	var gotContentType, gotPath string
	var gotOps []PatchOp
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotOps)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"enc-1"}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Tokens: staticTokens("t")})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ops := []PatchOp{ReplaceOp("/status", "finished")}
	resp := client.Patch(context.Background(), "Encounter", "enc-1", ops)
	if !resp.Success {
		t.Fatalf("expected success, got status %d", resp.StatusCode)
	}
	if gotContentType != "application/json-patch+json" {
		t.Errorf("expected json-patch content type, got %q", gotContentType)
	}
	if gotPath != "/Encounter/enc-1" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if len(gotOps) != 1 || gotOps[0].Op != "replace" || gotOps[0].Path != "/status" {
		t.Errorf("unexpected patch body %+v", gotOps)
	}
}

func TestSendWithoutTokenShortCircuits(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Tokens: failingTokens{}})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp := client.Post(context.Background(), "Encounter", map[string]string{})
	if resp.Success {
		t.Fatal("expected failure envelope")
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected synthetic 401, got %d", resp.StatusCode)
	}
	if called {
		t.Fatal("no network call should be made without a token")
	}
}

func TestSendClassifiesTimeoutAsFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Tokens: staticTokens("t"), Timeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	resp := client.Get(context.Background(), "/Encounter/enc-1")
	if resp.Success {
		t.Fatal("expected failure envelope on timeout")
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500-class envelope, got %d", resp.StatusCode)
	}
}

func TestSearchPatientByNIK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Patient" {
			http.NotFound(w, r)
			return
		}
		identifier := r.URL.Query().Get("identifier")
		w.Header().Set("Content-Type", "application/json")
		if identifier == "https://fhir.kemkes.go.id/id/nik|3174012345678901" {
			w.Write([]byte(`{"total":1,"entry":[{"resource":{"resourceType":"Patient","id":"P0001"}}]}`))
			return
		}
		w.Write([]byte(`{"total":0}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Tokens: staticTokens("t")})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx := context.Background()
	id, found, err := client.SearchPatientByNIK(ctx, "3174012345678901")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !found || id != "P0001" {
		t.Fatalf("expected P0001, got %q found=%v", id, found)
	}

	_, found, err = client.SearchPatientByNIK(ctx, "0000000000000000")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if found {
		t.Fatal("expected not found for unknown NIK")
	}
}
