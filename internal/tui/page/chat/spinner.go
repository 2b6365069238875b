package chat

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// spinnerTickMsg advances the spinner of one turn.
type spinnerTickMsg struct {
	turn uint64
}

// Spinner animates while a reply streams. Ticks of an earlier turn are
// dropped so a quick cancel and resend does not double the speed.
type Spinner struct {
	frame  int
	turn   uint64
	active bool
}

// Start begins animating for turn.
func (s *Spinner) Start(turn uint64) tea.Cmd {
	if s.active && s.turn == turn {
		return nil
	}
	s.active = true
	s.turn = turn
	s.frame = 0
	return s.tick()
}

// Stop halts the animation.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	return s.active
}

// Update advances on its own ticks.
func (s *Spinner) Update(msg spinnerTickMsg) tea.Cmd {
	if !s.active || msg.turn != s.turn {
		return nil
	}
	s.frame = (s.frame + 1) % len(spinnerFrames)
	return s.tick()
}

// View returns the current frame, or nothing when stopped.
func (s *Spinner) View() string {
	if !s.active {
		return ""
	}
	return spinnerFrames[s.frame]
}

func (s *Spinner) tick() tea.Cmd {
	turn := s.turn
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{turn: turn}
	})
}
