package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"", "none"} {
		svc, err := New(name, ServiceConfig{})
		if err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
		if svc != nil {
			t.Errorf("New(%q): expected no provider, got %s", name, svc.Name())
		}
	}

	svc, err := New("systran", ServiceConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("New(systran) failed: %v", err)
	}
	if svc.Name() != "systran" {
		t.Errorf("expected 'systran', got %q", svc.Name())
	}

	svc, err = New("google", ServiceConfig{})
	if err != nil {
		t.Fatalf("New(google) failed: %v", err)
	}
	if svc.Name() != "google" {
		t.Errorf("expected 'google', got %q", svc.Name())
	}

	if _, err := New("babelfish", ServiceConfig{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestSystranService_TranslateBatch_NoAPIKey(t *testing.T) {
	svc := NewSystranService(ServiceConfig{})

	_, err := svc.TranslateBatch(context.Background(), []string{"Hello"}, "fr")
	if err == nil {
		t.Error("expected error when no API key")
	}
}

func TestSystranService_TranslateBatch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translation/text/translate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("missing API key header")
		}

		var req struct {
			Text   []string `json:"text"`
			Target string   `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Target != "es" || len(req.Text) != 2 {
			t.Errorf("unexpected request %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"outputs": []map[string]string{
				{"output": "Hola "},
				{"output": " revisa "},
			},
		})
	}))
	defer server.Close()

	svc := NewSystranService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL})

	got, err := svc.TranslateBatch(context.Background(), []string{"Hello ", " check "}, "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Hola " || got[1] != " revisa " {
		t.Errorf("unexpected translations %q", got)
	}
}

func TestSystranService_TranslateBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outputs": [{"output": "only one"}]}`))
	}))
	defer server.Close()

	svc := NewSystranService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := svc.TranslateBatch(context.Background(), []string{"a", "b"}, "es")
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestSystranService_TranslateBatch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Forbidden"))
	}))
	defer server.Close()

	svc := NewSystranService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL})

	_, err := svc.TranslateBatch(context.Background(), []string{"Hello"}, "fr")
	if err == nil {
		t.Error("expected error for non-OK status")
	}
}

func TestSystranService_TranslateBatch_OutputError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outputs": [{"output": "ok"}, {"error": "unsupported"}]}`))
	}))
	defer server.Close()

	svc := NewSystranService(ServiceConfig{APIKey: "test-key", BaseURL: server.URL})

	if _, err := svc.TranslateBatch(context.Background(), []string{"a", "b"}, "xx"); err == nil {
		t.Error("expected error for failed output")
	}
}

func TestSystranService_TranslateBatch_Empty(t *testing.T) {
	svc := NewSystranService(ServiceConfig{APIKey: "test-key", BaseURL: "http://localhost:19999"})

	got, err := svc.TranslateBatch(context.Background(), nil, "fr")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no translations, got %q", got)
	}
}

func TestGoogleService_InvalidTarget(t *testing.T) {
	svc := NewGoogleService(ServiceConfig{})

	_, err := svc.TranslateBatch(context.Background(), []string{"Hello"}, "not a language!")
	if err == nil {
		t.Error("expected error for invalid target language")
	}
}
