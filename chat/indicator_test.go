package chat

import (
	"testing"

	"github.com/linanwx/therachat/transport"
)

func TestIndicatorFollowsState(t *testing.T) {
	ind := NewIndicator()
	if ind.Connected() {
		t.Fatal("new indicator should be disconnected")
	}

	var changes []bool
	ind.OnChange(func(c bool) { changes = append(changes, c) })

	ind.Observe(transport.StateConnecting)
	ind.Observe(transport.StateOpen)
	if !ind.Connected() {
		t.Fatal("open should read as connected")
	}
	ind.Observe(transport.StateClosed)
	ind.Observe(transport.StateConnecting)
	ind.Observe(transport.StateClosed)

	want := []bool{true, false}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("changes = %v, want %v", changes, want)
		}
	}
	if ind.State() != transport.StateClosed {
		t.Fatalf("State() = %v", ind.State())
	}
}

func TestIndicatorListenerMayRegisterAnother(t *testing.T) {
	ind := NewIndicator()
	var late []bool
	ind.OnChange(func(bool) {
		ind.OnChange(func(c bool) { late = append(late, c) })
	})

	ind.Observe(transport.StateOpen)
	if len(late) != 0 {
		t.Fatalf("listener added during a change saw it: %v", late)
	}
	ind.Observe(transport.StateClosed)
	if len(late) != 1 || late[0] {
		t.Fatalf("late listener got %v, want [false]", late)
	}
}
