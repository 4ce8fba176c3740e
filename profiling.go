package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sync"
)

// startDefaultPGORecording begins a CPU profile that lands at path only
// when the returned stop func runs. Until then it is written to a sibling
// temp file, so a run killed mid-capture leaves any previous profile in
// place. Stop is safe to call more than once and reports the first result.
func startDefaultPGORecording(path string) (func() error, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating profile for %q: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}
	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			pprof.StopCPUProfile()
			if err := f.Close(); err != nil {
				stopErr = errors.Join(fmt.Errorf("closing profile: %w", err), os.Remove(f.Name()))
				return
			}
			if err := os.Rename(f.Name(), path); err != nil {
				stopErr = errors.Join(fmt.Errorf("publishing profile %q: %w", path, err), os.Remove(f.Name()))
			}
		})
		return stopErr
	}
	return stop, nil
}
