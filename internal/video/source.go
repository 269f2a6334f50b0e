// Package video runs the live recognition loop over a webcam or a video file.
package video

import (
	"strconv"
	"strings"
	"time"
)

// Source is either a camera index or a file path.
type Source struct {
	Device int
	Path   string
}

// IsDevice reports whether the source is a camera.
func (s Source) IsDevice() bool { return s.Path == "" }

func (s Source) String() string {
	if s.IsDevice() {
		return "camera " + strconv.Itoa(s.Device)
	}
	return s.Path
}

// ParseSource reads "0", "1", ... as camera indexes and anything else as a file path.
func ParseSource(s string) Source {
	s = strings.TrimSpace(s)
	if s == "" {
		return Source{Device: 0}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Source{Device: n}
	}
	return Source{Path: s}
}

// fpsWindow is how many frames pass between rate updates.
const fpsWindow = 30

// FPS is a frame counter that recomputes the average rate since start every
// fpsWindow frames.
type FPS struct {
	start  time.Time
	frames int
	rate   float64
}

// NewFPS starts counting at now.
func NewFPS(now time.Time) *FPS {
	return &FPS{start: now}
}

// Tick counts one frame. It returns the current rate and whether it was just updated.
func (f *FPS) Tick(now time.Time) (float64, bool) {
	f.frames++
	if f.frames%fpsWindow != 0 {
		return f.rate, false
	}
	if elapsed := now.Sub(f.start).Seconds(); elapsed > 0 {
		f.rate = float64(f.frames) / elapsed
	}
	return f.rate, true
}

// Rate returns the last computed rate, 0 before the first update.
func (f *FPS) Rate() float64 { return f.rate }
