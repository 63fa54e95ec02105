package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	transitionFrames = 6
	frameInterval    = 30 * time.Millisecond
)

// TransitionTickMsg advances the transition identified by ID.
type TransitionTickMsg struct {
	ID  int
	Gen int
}

// Transition is a short enter or exit animation measured in frames.
// Progress is 0 when hidden and 1 when fully shown: an enter run climbs
// from 0 to 1, an exit run falls from 1 to 0. Each run invalidates ticks of
// the previous one.
type Transition struct {
	id      int
	frame   int
	gen     int
	leaving bool
}

func NewTransition(id int) Transition {
	return Transition{id: id, frame: transitionFrames}
}

// Start restarts the enter animation and returns the first tick.
func (t *Transition) Start() tea.Cmd {
	return t.run(false)
}

// Leave starts the exit animation and returns the first tick.
func (t *Transition) Leave() tea.Cmd {
	return t.run(true)
}

func (t *Transition) run(leaving bool) tea.Cmd {
	t.gen++
	t.frame = 0
	t.leaving = leaving
	return t.tick()
}

func (t Transition) Update(msg tea.Msg) (Transition, tea.Cmd) {
	tick, ok := msg.(TransitionTickMsg)
	if !ok || tick.ID != t.id || tick.Gen != t.gen {
		return t, nil
	}
	if t.frame >= transitionFrames {
		return t, nil
	}
	t.frame++
	if t.frame >= transitionFrames {
		return t, nil
	}
	return t, t.tick()
}

func (t Transition) Progress() float64 {
	p := float64(t.frame) / transitionFrames
	if t.leaving {
		return 1 - p
	}
	return p
}

// Leaving reports an exit run that has not finished yet.
func (t Transition) Leaving() bool {
	return t.leaving && !t.Settled()
}

func (t Transition) Settled() bool {
	return t.frame >= transitionFrames
}

func (t Transition) tick() tea.Cmd {
	id, gen := t.id, t.gen
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TransitionTickMsg{ID: id, Gen: gen}
	})
}
