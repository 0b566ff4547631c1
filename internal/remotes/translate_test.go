package remotes

import (
	"errors"
	"testing"
)

// setTuple assigns the full lookup tuple of a keymap.
func setTuple(t *testing.T, r *Registry, remote, name string, protocol, device, command int32) {
	t.Helper()
	if err := r.SetProtocol(remote, name, protocol); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDevice(remote, name, device); err != nil {
		t.Fatal(err)
	}
	if err := r.SetCommand(remote, name, command); err != nil {
		t.Fatal(err)
	}
}

func TestTranslateBroadcastsAcrossRemotes(t *testing.T) {
	registry, endpoints := newTestRegistry()

	mustCreateRemote(t, registry, "g1")
	mustCreateKeymap(t, registry, "g1", "power")
	setTuple(t, registry, "g1", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "g1", "power", 30)

	mustCreateRemote(t, registry, "g2")
	mustCreateKeymap(t, registry, "g2", "power")
	setTuple(t, registry, "g2", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "g2", "power", 31)

	emissions := registry.Translate(1, 2, 3)
	if len(emissions) != 2 {
		t.Fatalf("expected 2 emissions, got %d: %+v", len(emissions), emissions)
	}

	// Sorted remote order: g1 before g2.
	want := []Emission{
		{Remote: "g1", Keymap: "power", Keycode: 30},
		{Remote: "g2", Keymap: "power", Keycode: 31},
	}
	for i, e := range emissions {
		if e != want[i] {
			t.Errorf("emission %d = %+v, want %+v", i, e, want[i])
		}
	}

	for name, code := range map[string]int32{"g1": 30, "g2": 31} {
		events := endpoints[name].Events()
		if len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", name, len(events))
		}
		if events[0].Code != code || !events[0].Pressed {
			t.Errorf("%s: event = %+v, want key-down %d", name, events[0], code)
		}
		if endpoints[name].SyncCount() != 1 {
			t.Errorf("%s: expected 1 sync, got %d", name, endpoints[name].SyncCount())
		}
	}
}

func TestTranslateNoMatch(t *testing.T) {
	registry, endpoints := newTestRegistry()
	mustCreateRemote(t, registry, "tv")
	mustCreateKeymap(t, registry, "tv", "power")
	setTuple(t, registry, "tv", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "tv", "power", 30)

	if emissions := registry.Translate(9, 9, 9); emissions != nil {
		t.Errorf("unmatched tuple produced emissions: %+v", emissions)
	}
	if events := endpoints["tv"].Events(); len(events) != 0 {
		t.Errorf("unmatched tuple produced endpoint events: %+v", events)
	}
}

func TestTranslateSkipsUnassignedKeymaps(t *testing.T) {
	registry, endpoints := newTestRegistry()
	mustCreateRemote(t, registry, "tv")
	mustCreateKeymap(t, registry, "tv", "power")
	setTuple(t, registry, "tv", "power", 1, 2, 3)
	// No keycode assigned.

	if emissions := registry.Translate(1, 2, 3); emissions != nil {
		t.Errorf("unassigned keymap fired: %+v", emissions)
	}
	if events := endpoints["tv"].Events(); len(events) != 0 {
		t.Errorf("unassigned keymap produced events: %+v", events)
	}
}

func TestTranslateMatchesMultipleEntriesInOneRemote(t *testing.T) {
	registry, endpoints := newTestRegistry()
	mustCreateRemote(t, registry, "tv")

	mustCreateKeymap(t, registry, "tv", "a")
	setTuple(t, registry, "tv", "a", 1, 2, 3)
	mustSetKeycode(t, registry, "tv", "a", 30)

	mustCreateKeymap(t, registry, "tv", "b")
	setTuple(t, registry, "tv", "b", 1, 2, 3)
	mustSetKeycode(t, registry, "tv", "b", 31)

	emissions := registry.Translate(1, 2, 3)
	if len(emissions) != 2 {
		t.Fatalf("expected both entries to fire, got %+v", emissions)
	}
	if events := endpoints["tv"].Events(); len(events) != 2 {
		t.Errorf("expected 2 events, got %+v", events)
	}
}

func TestTranslateOnlyKeyDown(t *testing.T) {
	registry, endpoints := newTestRegistry()
	mustCreateRemote(t, registry, "tv")
	mustCreateKeymap(t, registry, "tv", "power")
	setTuple(t, registry, "tv", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "tv", "power", 30)

	registry.Translate(1, 2, 3)
	registry.Translate(1, 2, 3)

	for _, ev := range endpoints["tv"].Events() {
		if !ev.Pressed {
			t.Errorf("translation synthesized a key release: %+v", ev)
		}
	}
}

func TestTranslateContinuesAfterEmissionFailure(t *testing.T) {
	registry, endpoints := newTestRegistry()

	mustCreateRemote(t, registry, "g1")
	mustCreateKeymap(t, registry, "g1", "power")
	setTuple(t, registry, "g1", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "g1", "power", 30)

	mustCreateRemote(t, registry, "g2")
	mustCreateKeymap(t, registry, "g2", "power")
	setTuple(t, registry, "g2", "power", 1, 2, 3)
	mustSetKeycode(t, registry, "g2", "power", 31)

	endpoints["g1"].FailNextReport(errors.New("device gone"))

	emissions := registry.Translate(1, 2, 3)
	if len(emissions) != 1 || emissions[0].Remote != "g2" {
		t.Fatalf("expected scan to continue past failed emission, got %+v", emissions)
	}
	if events := endpoints["g2"].Events(); len(events) != 1 {
		t.Errorf("g2 did not fire after g1 failure: %+v", events)
	}
}
