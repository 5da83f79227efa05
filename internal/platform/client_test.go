package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateRecord(t *testing.T) {
	var gotAuth, gotPath string
	var gotFields map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotFields); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "rec-42"})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "secret")
	id, err := client.CreateRecord(context.Background(), "incident", map[string]any{"short_description": "widget down"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "rec-42" {
		t.Errorf("id: got %q, want rec-42", id)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotPath != "/records/incident" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotFields["short_description"] != "widget down" {
		t.Errorf("fields: got %v", gotFields)
	}
}

func TestGetRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records/incident/rec-42" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"state": "open"})
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "")
	fields, err := client.GetRecord(context.Background(), "incident", "rec-42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fields["state"] != "open" {
		t.Errorf("fields: got %v", fields)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"forbidden is permission denied", http.StatusForbidden, func(t *testing.T, err error) {
			if !IsPermissionDenied(err) {
				t.Errorf("expected permission denied, got %v", err)
			}
			var pd *PermissionDeniedError
			if errors.As(err, &pd) && (pd.Operation != "update" || pd.Resource != "incident") {
				t.Errorf("context missing from error: %+v", pd)
			}
		}},
		{"unauthorized is permission denied", http.StatusUnauthorized, func(t *testing.T, err error) {
			if !IsPermissionDenied(err) {
				t.Errorf("expected permission denied, got %v", err)
			}
		}},
		{"server error is unavailable", http.StatusBadGateway, func(t *testing.T, err error) {
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		}},
		{"client error is plain", http.StatusNotFound, func(t *testing.T, err error) {
			if err == nil || IsPermissionDenied(err) || errors.Is(err, ErrUnavailable) {
				t.Errorf("expected a plain error, got %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewRESTClient(server.URL, "secret")
			err := client.UpdateRecord(context.Background(), "incident", "rec-1", map[string]any{"state": "closed"})
			tt.check(t, err)
		})
	}
}

func TestUnreachableHostIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewRESTClient(server.URL, "")
	_, err := client.GetRecord(context.Background(), "incident", "rec-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
