package resultsink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridwalk/gridwalk/report"
)

func TestPut(t *testing.T) {
	run := report.NewRun("invoices")
	run.Pass("rows render", time.Second)
	run.Finish()

	var gotPath, gotAuth string
	var gotBody report.Run
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("request method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding uploaded run: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "sekrit")
	if err := c.Put(context.Background(), run); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if want := "/api/v1/runs/" + run.ID; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("authorization header = %q, want Bearer sekrit", gotAuth)
	}
	if gotBody.Suite != "invoices" || len(gotBody.Checks) != 1 {
		t.Errorf("uploaded run = %+v", gotBody)
	}
}

func TestPutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad token"})
	}))
	defer srv.Close()

	run := report.NewRun("invoices")
	run.Finish()
	err := New(srv.URL, "wrong").Put(context.Background(), run)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Put returned %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "bad token" {
		t.Errorf("APIError = %+v, want 403/bad token", apiErr)
	}
}

func TestPutContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	run := report.NewRun("invoices")
	run.Finish()
	if err := New(srv.URL, "").Put(ctx, run); err == nil {
		t.Error("Put returned nil error after context deadline")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}

	down := New("http://127.0.0.1:1", "")
	if err := down.Health(context.Background()); err == nil {
		t.Error("Health against a closed port returned nil error")
	}
}
