package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner displays an animated progress indicator on w, normally stderr.
type Spinner struct {
	w    io.Writer
	mu   sync.Mutex
	msg  string
	done chan struct{}
}

func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start begins the animation with msg. Calling Start on a running
// spinner only replaces the message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	go s.run(s.done)
}

// Update changes the message while running. It matches search.ProgressFunc.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	close(s.done)
	s.done = nil
	fmt.Fprint(s.w, "\r\033[K")
}

func (s *Spinner) run(done <-chan struct{}) {
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			if s.done != done {
				s.mu.Unlock()
				return
			}
			fmt.Fprintf(s.w, "\r\033[K%c %s", frames[i%len(frames)], s.msg)
			s.mu.Unlock()
		}
	}
}
