package sensor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnrollRelaysSensorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/enroll" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("role"); got != "student" {
			t.Errorf("role = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"fingerprintId":3}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	reply, err := c.Enroll(context.Background(), "student")
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if reply.Status != http.StatusCreated {
		t.Errorf("status = %d, want 201", reply.Status)
	}
	if string(reply.Body) != `{"success":true,"fingerprintId":3}` {
		t.Errorf("body = %s", reply.Body)
	}
}

func TestEnrollOmitsEmptyRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL + "/") // trailing slash must not double up
	if _, err := c.Enroll(context.Background(), ""); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
}

func TestEnrollUnreachableSensor(t *testing.T) {
	c := New("http://127.0.0.1:1")
	if _, err := c.Enroll(context.Background(), "teacher"); err == nil {
		t.Fatal("expected an error for an unreachable sensor")
	}
}
