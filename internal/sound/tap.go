package sound

import (
	"sync"
	"time"
)

// Tap is the io.Reader handed to the audio player. It streams the current
// clip's PCM and remembers the play position so the analyser can read the
// mono samples around it. Read runs on the audio goroutine; everything
// else runs on the frame loop.
type Tap struct {
	mu      sync.Mutex
	clip    *Clip
	pos     int
	paused  bool
	loop    bool
	latency int
	// wrapped is set once a looping clip has restarted, so the heard
	// window may reach back across the end of the clip.
	wrapped bool
}

// NewTap returns an idle tap that plays silence until a clip is set.
// latencyFrames is how far the player reads ahead of what is heard.
func NewTap(latencyFrames int, loop bool) *Tap {
	if latencyFrames < 0 {
		latencyFrames = 0
	}
	return &Tap{latency: latencyFrames, loop: loop}
}

// SetClip replaces the playing clip and rewinds.
func (t *Tap) SetClip(c *Clip) {
	t.mu.Lock()
	t.clip = c
	t.pos = 0
	t.wrapped = false
	t.mu.Unlock()
}

// Clip returns the playing clip, or nil.
func (t *Tap) Clip() *Clip {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clip
}

// TogglePause flips the paused state and returns the new value.
func (t *Tap) TogglePause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = !t.paused
	return t.paused
}

// Paused reports whether playback is paused.
func (t *Tap) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Position reports the read position of the playing clip.
func (t *Tap) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clip == nil || t.clip.SampleRate <= 0 {
		return 0
	}
	return time.Duration(t.pos) * time.Second / time.Duration(t.clip.SampleRate)
}

// Read fills p with whole stereo frames. Without a clip, while paused, or
// past the end of a non-looping clip it produces silence so the player
// never stalls.
func (t *Tap) Read(p []byte) (int, error) {
	n := len(p) - len(p)%frameBytes
	if n == 0 {
		return 0, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clip == nil || t.paused || len(t.clip.PCM) == 0 {
		clear(p[:n])
		return n, nil
	}
	pcm := t.clip.PCM
	written := 0
	for written < n {
		off := t.pos * frameBytes
		if off >= len(pcm) {
			if !t.loop {
				clear(p[written:n])
				break
			}
			t.pos = 0
			off = 0
			t.wrapped = true
		}
		c := copy(p[written:n], pcm[off:])
		written += c
		t.pos += c / frameBytes
	}
	return n, nil
}

// Close implements io.Closer.
func (t *Tap) Close() error { return nil }

// Recent copies up to n mono samples ending at the heard position into dst
// (reusing its storage) and returns it. It returns nil without a clip.
// After a looping clip has restarted the window wraps around its end.
func (t *Tap) Recent(n int, dst []float32) []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clip == nil || n <= 0 {
		return nil
	}
	mono := t.clip.Mono
	if t.wrapped && len(mono) > 0 {
		l := len(mono)
		if n > l {
			n = l
		}
		end := ((t.pos-t.latency)%l + l) % l
		dst = dst[:0]
		for k := end - n; k < end; k++ {
			dst = append(dst, mono[(k+l)%l])
		}
		return dst
	}
	end := t.pos - t.latency
	if end < 0 {
		end = 0
	}
	if end > len(t.clip.Mono) {
		end = len(t.clip.Mono)
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return append(dst[:0], t.clip.Mono[start:end]...)
}
