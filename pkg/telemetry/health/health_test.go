package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"database": func(context.Context) error { return nil },
				"sessions": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"database": func(context.Context) error { return nil },
				"sessions": func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"sessions"},
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"world": func(ctx context.Context) error {
					<-ctx.Done()
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"world"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50 * time.Millisecond)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			status := c.Readiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Fatalf("Readiness() status = %q, want %q", status.Status, tt.wantStatus)
			}
			for _, name := range tt.wantFailed {
				if status.Checks[name].Status != StatusUnhealthy {
					t.Errorf("check %q = %+v, want unhealthy", name, status.Checks[name])
				}
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
		})
	}
}

func TestChecker_Names(t *testing.T) {
	c := New(0)
	c.Register("world", func(context.Context) error { return nil })
	c.Register("database", func(context.Context) error { return nil })
	c.Register("database", func(context.Context) error { return errors.New("replaced") })

	if got := c.Names(); !reflect.DeepEqual(got, []string{"database", "world"}) {
		t.Errorf("Names() = %v", got)
	}
	if c.Readiness(context.Background()).Checks["database"].Message != "replaced" {
		t.Error("expected second registration to replace the first")
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	if err := PingCheck(fakePinger{})(context.Background()); err != nil {
		t.Errorf("expected healthy ping, got %v", err)
	}
	if err := PingCheck(fakePinger{err: errors.New("database is locked")})(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	failing := false
	c.Register("database", func(context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})

	mux := http.NewServeMux()
	Mount(mux, c, NewVersionInfo("1.2.3", "abc123", "2026-01-01"))

	tests := []struct {
		name     string
		method   string
		path     string
		failing  bool
		wantCode int
	}{
		{name: "liveness", method: http.MethodGet, path: LivenessPath, wantCode: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: ReadinessPath, wantCode: http.StatusOK},
		{name: "not ready", method: http.MethodGet, path: ReadinessPath, failing: true, wantCode: http.StatusServiceUnavailable},
		{name: "version", method: http.MethodGet, path: VersionPath, wantCode: http.StatusOK},
		{name: "head", method: http.MethodHead, path: LivenessPath, wantCode: http.StatusOK},
		{name: "post rejected", method: http.MethodPost, path: LivenessPath, wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing = tt.failing
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantCode)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(NewVersionInfo("1.2.3", "abc123", "2026-01-01"))(rec, httptest.NewRequest(http.MethodGet, VersionPath, nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info: %+v", info)
	}
}
