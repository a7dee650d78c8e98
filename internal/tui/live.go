package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/algoviz/internal/playback"
)

const (
	clearLine  = "\r\033[2K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
	barWidth   = 30
)

// LiveStatus prints a single refreshing status line for a run. It is meant
// to be registered as a playback observer and throttles itself to frameRate.
type LiveStatus struct {
	mu        sync.Mutex
	out       io.Writer
	frameRate int
	lastFrame time.Time
	last      playback.Session
}

func NewLiveStatus(out io.Writer, frameRate int) *LiveStatus {
	if frameRate <= 0 {
		frameRate = 20
	}
	return &LiveStatus{out: out, frameRate: frameRate}
}

func (r *LiveStatus) OnChange(s playback.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = s
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) && s.Playing {
		return
	}
	r.lastFrame = time.Now()
	fmt.Fprint(r.out, clearLine+StatusLine(s))
}

func (r *LiveStatus) Start() { fmt.Fprint(r.out, hideCursor) }

// Stop draws the final state and restores the cursor.
func (r *LiveStatus) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, clearLine+StatusLine(r.last)+"\n"+showCursor)
}

// StatusLine renders s as plain text.
func StatusLine(s playback.Session) string {
	var b strings.Builder
	name := "-"
	if s.Selected != nil {
		name = string(s.Selected.ID)
	}
	filled := int(s.Progress / 100 * barWidth)
	filled = max(0, min(barWidth, filled))

	fmt.Fprintf(&b, "%-15s [%s%s] %5.1f%%  %-9s speed %d",
		name, strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		s.Progress, s.Phase, s.Speed)
	if len(s.Comparing) > 0 {
		fmt.Fprintf(&b, "  cmp %v", s.Comparing)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "  error: %s", s.Error)
	}
	return b.String()
}
