package health

import (
	"context"
	"errors"
	"testing"
)

func TestReadyReportsFailingDependency(t *testing.T) {
	svc := NewService()
	svc.Add("database", func(ctx context.Context) error { return nil })
	svc.Add("redis", func(ctx context.Context) error { return errors.New("connection refused") })
	svc.Add("ignored", nil)

	res := svc.Ready(context.Background())
	if res.OK {
		t.Fatalf("expected not ready")
	}
	if res.Checks["database"] != "ok" || res.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected checks: %+v", res.Checks)
	}
	if _, ok := res.Checks["ignored"]; ok {
		t.Fatalf("nil checks must not be registered")
	}
}

func TestReadyWithoutChecks(t *testing.T) {
	res := NewService().Ready(context.Background())
	if !res.OK || len(res.Checks) != 0 {
		t.Fatalf("expected ready with no checks, got %+v", res)
	}
	if !NewService().Status()["ok"] {
		t.Fatalf("expected liveness ok")
	}
}
