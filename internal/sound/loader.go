package sound

import (
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Result is the outcome of one Load.
type Result struct {
	Generation uint64
	Clip       *Clip
	Err        error
}

// DecodeFunc matches Decode; Loader takes it as a field so tests can stall
// or fail decodes.
type DecodeFunc func(name string, raw []byte, sampleRate int) (*Clip, error)

// Loader decodes in the background. Every Load supersedes the previous
// one: a decode that finishes after a newer Load started is dropped.
type Loader struct {
	sampleRate int
	decode     DecodeFunc

	mu      sync.Mutex
	gen     uint64
	pending *Result
}

// NewLoader returns a loader that decodes with Decode at sampleRate.
func NewLoader(sampleRate int) *Loader {
	return &Loader{sampleRate: sampleRate, decode: Decode}
}

// NewLoaderWith returns a loader using a custom decode function.
func NewLoaderWith(sampleRate int, decode DecodeFunc) *Loader {
	return &Loader{sampleRate: sampleRate, decode: decode}
}

// Load starts decoding raw and returns its generation.
func (l *Loader) Load(name string, raw []byte) uint64 {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.pending = nil
	l.mu.Unlock()

	go func() {
		clip, err := l.decode(name, raw, l.sampleRate)
		l.finish(Result{Generation: gen, Clip: clip, Err: err})
	}()
	return gen
}

// LoadFile reads path and starts decoding it.
func (l *Loader) LoadFile(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %q: %w", path, err)
	}
	return l.Load(path, raw), nil
}

// LoadFS reads name from fsys (dropped files) and starts decoding it.
func (l *Loader) LoadFS(fsys fs.FS, name string) (uint64, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, fmt.Errorf("reading dropped %q: %w", name, err)
	}
	return l.Load(name, raw), nil
}

func (l *Loader) finish(r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.Generation != l.gen {
		return
	}
	l.pending = &r
}

// Generation reports the generation of the most recent Load.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Poll hands over the result of the current generation once it is done.
// It never blocks and returns each result once.
func (l *Loader) Poll() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil || l.pending.Generation != l.gen {
		return Result{}, false
	}
	r := *l.pending
	l.pending = nil
	return r, true
}
