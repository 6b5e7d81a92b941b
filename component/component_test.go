package component

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/voicepulse/logger"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}
func (f *fakeComponent) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}
func (f *fakeComponent) Health(context.Context) Health { return f.health }

func newTestRegistry() *Registry {
	return NewRegistry(WithLogger(logger.Nop()))
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	var events []string
	if err := r.Register(&fakeComponent{name: "sessions", events: &events}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "sessions", events: &events}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("sessions") == nil {
		t.Error("expected registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := newTestRegistry()
	var events []string
	for _, name := range []string{"telemetry", "sessions"} {
		r.Register(&fakeComponent{name: name, events: &events})
	}
	ctx := context.Background()

	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	// Already running components are not restarted.
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("second StopAll failed: %v", err)
	}

	want := []string{"start:telemetry", "start:sessions", "stop:sessions", "stop:telemetry"}
	if !equalEvents(events, want) {
		t.Errorf("expected %v, got %v", want, events)
	}
}

func TestRegistry_StartFailureRollsBack(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&fakeComponent{name: "telemetry", events: &events})
	r.Register(&fakeComponent{name: "sessions", events: &events, startErr: fmt.Errorf("boom")})
	r.Register(&fakeComponent{name: "never", events: &events})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	want := []string{"start:telemetry", "start:sessions", "stop:telemetry"}
	if !equalEvents(events, want) {
		t.Errorf("expected %v, got %v", want, events)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Errorf("expected nothing left to stop, got %v", err)
	}
}

func TestRegistry_StopErrorsJoined(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&fakeComponent{name: "a", events: &events, stopErr: fmt.Errorf("a failed")})
	r.Register(&fakeComponent{name: "b", events: &events, stopErr: fmt.Errorf("b failed")})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected error from StopAll")
	}
	for _, s := range []string{"stop a", "stop b"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("expected %q in %q", s, err.Error())
		}
	}
}

func TestHealth(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&fakeComponent{name: "telemetry", events: &events, health: Health{Name: "telemetry", Status: StatusDegraded}})
	r.Register(&fakeComponent{name: "sessions", events: &events, health: Health{Name: "sessions", Status: StatusHealthy}})

	reports := r.HealthAll(context.Background())
	if len(reports) != 2 || reports[0].Name != "telemetry" {
		t.Fatalf("expected reports in registration order, got %v", reports)
	}

	tests := []struct {
		name    string
		reports []Health
		want    HealthStatus
	}{
		{"empty", nil, StatusHealthy},
		{"degraded", reports, StatusDegraded},
		{"unhealthy wins", append(reports, Health{Status: StatusUnhealthy}), StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overall(tc.reports); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
