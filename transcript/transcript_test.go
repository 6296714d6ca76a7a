package transcript

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendAssignsIdentityAndKeepsOrder(t *testing.T) {
	s := NewStore()
	first := s.Append(Message{Content: "one", Role: RoleUser})
	second := s.Append(Message{Content: "two", Role: RoleAgent})

	if first.ID == "" || second.ID == "" || first.ID == second.ID {
		t.Fatalf("ids = %q, %q; want distinct non-empty", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be filled")
	}

	got := s.Messages()
	if len(got) != 2 || got[0].Content != "one" || got[1].Content != "two" {
		t.Fatalf("Messages() = %+v, want append order", got)
	}
}

func TestAppendKeepsCallerIdentity(t *testing.T) {
	s := NewStore()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	got := s.Append(Message{ID: "srv-1", Content: "x", Role: RoleAgent, CreatedAt: at})
	if got.ID != "srv-1" || !got.CreatedAt.Equal(at) {
		t.Fatalf("Append() = %+v, want caller id and time", got)
	}
}

func TestOrderIsAppendOrderNotTimestamp(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Append(Message{Content: "later clock", Role: RoleUser, CreatedAt: now.Add(time.Hour)})
	s.Append(Message{Content: "earlier clock", Role: RoleAgent, CreatedAt: now})

	got := s.Messages()
	if got[0].Content != "later clock" {
		t.Fatalf("Messages() = %+v, want append order", got)
	}
}

func TestRapidAppendsGetUniqueIDs(t *testing.T) {
	s := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		m := s.Append(Message{Content: fmt.Sprint(i), Role: RoleAgent})
		if seen[m.ID] {
			t.Fatalf("duplicate id %q at %d", m.ID, i)
		}
		seen[m.ID] = true
	}
}

func TestAgentAppendClearsPendingAtomically(t *testing.T) {
	s := NewStore()
	s.AppendUser("hello")

	var snaps []Snapshot
	s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	s.Append(Message{Content: "hi there", Role: RoleAgent})

	if len(snaps) != 1 {
		t.Fatalf("got %d notifications, want 1", len(snaps))
	}
	snap := snaps[0]
	if snap.Pending {
		t.Fatal("pending should be cleared in the same notification as the agent message")
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Role != RoleAgent || last.Content != "hi there" {
		t.Fatalf("last message = %+v, want agent reply", last)
	}
}

func TestAppendUserSetsPendingInOneStep(t *testing.T) {
	s := NewStore()
	var snaps []Snapshot
	s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	s.AppendUser("hello")
	if len(snaps) != 1 || !snaps[0].Pending || len(snaps[0].Messages) != 1 {
		t.Fatalf("snapshots = %+v, want one with message and pending", snaps)
	}
	if snaps[0].Messages[0].Role != RoleUser {
		t.Fatalf("role = %q, want user", snaps[0].Messages[0].Role)
	}
}

func TestUserAppendDoesNotClearPending(t *testing.T) {
	s := NewStore()
	s.SetPending(true)
	s.Append(Message{Content: "x", Role: RoleUser})
	if !s.Pending() {
		t.Fatal("a user message must not clear the flag")
	}
	s.ClearPending()
	if s.Pending() {
		t.Fatal("ClearPending should clear the flag")
	}
}

func TestHydrateIsIdempotent(t *testing.T) {
	s := NewStore()
	history := []Message{
		{ID: "1", Content: "a", Role: RoleUser},
		{ID: "2", Content: "b", Role: RoleAgent},
	}
	s.Hydrate(history)
	s.Hydrate(history)

	got := s.Messages()
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("Messages() = %+v, want the history once", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewStore()
	s.AppendUser("x")
	s.Reset()
	if s.Len() != 0 || s.Pending() {
		t.Fatalf("after Reset: len=%d pending=%v", s.Len(), s.Pending())
	}
}

func TestSubscribeCancel(t *testing.T) {
	s := NewStore()
	calls := 0
	cancel := s.Subscribe(func(Snapshot) { calls++ })
	s.Append(Message{Content: "a", Role: RoleUser})
	cancel()
	s.Append(Message{Content: "b", Role: RoleUser})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSubscriberMayReadStore(t *testing.T) {
	s := NewStore()
	var lens []int
	s.Subscribe(func(Snapshot) { lens = append(lens, s.Len()) })
	s.Append(Message{Content: "a", Role: RoleUser})
	if len(lens) != 1 || lens[0] != 1 {
		t.Fatalf("lens = %v, want [1]", lens)
	}
}

func TestNotificationsFollowMutationOrder(t *testing.T) {
	s := NewStore()
	var mu sync.Mutex
	var lens []int
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		lens = append(lens, len(snap.Messages))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(Message{Content: "x", Role: RoleAgent})
		}()
	}
	wg.Wait()

	for i, n := range lens {
		if n != i+1 {
			t.Fatalf("notification %d saw %d messages, want %d", i, n, i+1)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"user", RoleUser, true},
		{"agent", RoleAgent, true},
		{" Assistant ", RoleAgent, true},
		{"system", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
