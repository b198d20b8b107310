package connectivity

import "testing"

func TestInitialState(t *testing.T) {
	if !NewMonitor(true).Online() {
		t.Error("expected online")
	}
	if NewMonitor(false).Online() {
		t.Error("expected offline")
	}
}

func TestListenersFireOnTransitionsOnly(t *testing.T) {
	m := NewMonitor(false)

	var events []bool
	m.Subscribe(func(online bool) {
		events = append(events, online)
	})

	m.SetOnline(false) // no transition
	m.SetOnline(true)
	m.SetOnline(true) // no transition
	m.SetOnline(false)

	if len(events) != 2 || events[0] != true || events[1] != false {
		t.Errorf("unexpected events: %v", events)
	}
	if m.Online() {
		t.Error("final state should be offline")
	}
}

func TestMultipleListeners(t *testing.T) {
	m := NewMonitor(false)

	calls := 0
	m.Subscribe(func(bool) { calls++ })
	m.Subscribe(func(bool) { calls++ })

	m.SetOnline(true)
	if calls != 2 {
		t.Errorf("expected both listeners to fire, got %d calls", calls)
	}
}
