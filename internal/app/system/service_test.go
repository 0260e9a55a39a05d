package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name     string
	startErr error
	events   *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.events = append(*s.events, "start:"+s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop:"+s.name)
	return nil
}

func TestManagerStartsInOrderStopsInReverse(t *testing.T) {
	m := NewManager()
	var events []string

	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, events[i], want[i])
		}
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	var events []string

	if err := m.Register(&recordingService{name: "a", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(&recordingService{name: "a", events: &events}); err == nil {
		t.Fatal("duplicate name accepted")
	}
}

func TestManagerRejectsRegisterAfterStart(t *testing.T) {
	m := NewManager()
	var events []string

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(&recordingService{name: "late", events: &events}); err == nil {
		t.Fatal("registration after start accepted")
	}
}

func TestManagerStopsStartedServicesOnFailure(t *testing.T) {
	m := NewManager()
	var events []string

	boom := errors.New("boom")
	if err := m.Register(&recordingService{name: "a", events: &events}); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := m.Register(&recordingService{name: "b", startErr: boom, events: &events}); err != nil {
		t.Fatalf("register b: %v", err)
	}

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected start failure, got %v", err)
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, events[i], want[i])
		}
	}
}
