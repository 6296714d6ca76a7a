package chat

import (
	"slices"
	"sync"

	"github.com/linanwx/therachat/transport"
)

// Indicator tracks whether the stream is connected.
type Indicator struct {
	mu        sync.Mutex
	state     transport.State
	listeners []func(connected bool)
}

// NewIndicator starts disconnected.
func NewIndicator() *Indicator {
	return &Indicator{state: transport.StateClosed}
}

// Observe records a transport state. Listeners run when connectivity flips.
func (i *Indicator) Observe(s transport.State) {
	i.mu.Lock()
	was := i.state == transport.StateOpen
	i.state = s
	now := s == transport.StateOpen
	listeners := slices.Clone(i.listeners)
	i.mu.Unlock()

	if was == now {
		return
	}
	for _, fn := range listeners {
		fn(now)
	}
}

// OnChange registers fn for connectivity changes.
func (i *Indicator) OnChange(fn func(connected bool)) {
	i.mu.Lock()
	i.listeners = append(i.listeners, fn)
	i.mu.Unlock()
}

// Connected is true only while the connection is open.
func (i *Indicator) Connected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state == transport.StateOpen
}

// State returns the last observed state.
func (i *Indicator) State() transport.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}
