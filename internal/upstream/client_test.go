package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	if _, err := c.Get(context.Background(), "/tasks", "tok-123"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q", gotType)
	}

	if _, err := c.Get(context.Background(), "/tasks", ""); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous call sent Authorization = %q", gotAuth)
	}
}

func TestDoSuccessFalseBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false, "message": "Tâche introuvable",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	_, err := c.Get(context.Background(), "/tasks/nope", "")
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Message != "Tâche introuvable" {
		t.Fatalf("message = %q", upErr.Message)
	}
}

func TestDoNon2xxBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false, "message": "Accès refusé",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	_, err := c.Delete(context.Background(), "/tasks/1", "tok")
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Status != http.StatusForbidden || upErr.Message != "Accès refusé" {
		t.Fatalf("got %+v", upErr)
	}
}

func TestDoUnreachableHostFallsBackToGenericMessage(t *testing.T) {
	c := New("http://127.0.0.1:0", zap.NewNop())
	_, err := c.Get(context.Background(), "/tasks", "")
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Message != "Erreur API" {
		t.Fatalf("message = %q", upErr.Message)
	}
}

func TestDoGarbageBodyFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	_, err := c.Get(context.Background(), "/tasks", "")
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T", err)
	}
	if upErr.Message != "Erreur API" {
		t.Fatalf("message = %q", upErr.Message)
	}
}

func TestEnvelopeDecode(t *testing.T) {
	env := &Envelope{Success: true, Data: json.RawMessage(`{"count":3}`)}
	var out struct {
		Count int `json:"count"`
	}
	if err := env.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Count != 3 {
		t.Fatalf("count = %d", out.Count)
	}

	empty := &Envelope{Success: true}
	if err := empty.Decode(&out); err == nil {
		t.Fatal("decode of empty data succeeded")
	}
}
