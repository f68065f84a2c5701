package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("QYVE_INSTANCE_ID", "worker-7")
	if got := GetID(); got != "worker-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("QYVE_INSTANCE_ID", "")
	if got := GetID(); got == "" {
		t.Fatalf("expected non-empty id")
	}
}
