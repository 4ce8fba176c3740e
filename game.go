package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ARG/internal/grid"
	"ARG/internal/preset"
	"ARG/internal/scene"
	"ARG/internal/sound"
	"ARG/internal/spectrum"
	"ARG/internal/view"
)

// Game is the shell context: it owns the scene, the audio pipeline and the
// camera, and drives the core once per ebiten tick.
type Game struct {
	scene    *scene.Manager
	engine   *grid.Engine
	updater  scene.Updater
	gpu      *openCLGridUpdater
	analyser *spectrum.Analyzer
	samples  []float32

	loader *sound.Loader
	tap    *sound.Tap
	output *audioOutput

	presets *preset.Watcher
	camera  view.Camera

	dragging    bool
	orbiting    bool
	lastCursorX int
	lastCursorY int

	autoBrush          bool
	autoBrushDeadline  time.Time
	autoBrushRand      *rand.Rand
	autoBrushX         float32
	autoBrushZ         float32
	autoBrushDirX      float32
	autoBrushDirZ      float32
	autoBrushFrameLeft int
	stopProfile        func() error

	glow          bool
	wireframe     bool
	status        string
	statusUntil   time.Time
	lastTickTime  time.Duration
	lastTickError time.Time

	frame     *ebiten.Image
	glowSmall *ebiten.Image
	vertices  []ebiten.Vertex
	projected []bool
	quads     []quad
	edges     [][2]int
	indices   []uint16
}

// newGame builds the shell from the parsed flags.
func newGame() (*Game, error) {
	cfg := spectrum.DefaultConfig(audioSampleRate)
	cfg.FFTSize = *fftSizeFlag
	cfg.MinDecibels = analyserMinDecibels
	cfg.MaxDecibels = analyserMaxDecibels
	cfg.Smoothing = analyserSmoothing
	analyser, err := spectrum.NewAnalyzer(cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring analyser: %w", err)
	}
	mgr, err := scene.NewManager(scene.DefaultConfig(*gridDimFlag))
	if err != nil {
		return nil, fmt.Errorf("configuring scene: %w", err)
	}

	g := &Game{
		scene:         mgr,
		engine:        grid.NewEngine(),
		analyser:      analyser,
		loader:        sound.NewLoader(audioSampleRate),
		tap:           sound.NewTap(audioLatencyFrames, true),
		camera:        view.NewCamera(screenW, screenH),
		autoBrushRand: rand.New(rand.NewSource(time.Now().UnixNano() + 2)),
	}
	g.updater = g.engine

	if *openCLFlag {
		if gpu, err := newOpenCLGridUpdater(g.engine); err != nil {
			log.Printf("OpenCL grid update unavailable, using CPU: %v", err)
		} else {
			log.Printf("OpenCL grid update enabled (device: %s)", gpu.DeviceName())
			g.gpu = gpu
			g.updater = gpu
		}
	}

	if *presetFlag != "" {
		g.loadPreset(*presetFlag)
		if w, err := preset.Watch(*presetFlag); err != nil {
			log.Printf("Preset hot reload disabled: %v", err)
		} else {
			g.presets = w
		}
	}
	if g.scene.Len() == 0 {
		g.scene.Create(nil)
	}

	if out, err := newAudioOutput(g.tap); err != nil {
		log.Printf("Audio output unavailable: %v", err)
	} else {
		g.output = out
	}
	if *audioFlag != "" {
		if _, err := g.loader.LoadFile(*audioFlag); err != nil {
			log.Printf("Audio load failed: %v", err)
		}
	}
	return g, nil
}

// Close releases the audio device, the preset watcher and any GPU state.
func (g *Game) Close() {
	if err := g.output.Close(); err != nil {
		log.Printf("Closing audio output: %v", err)
	}
	if g.presets != nil {
		if err := g.presets.Close(); err != nil {
			log.Printf("Closing preset watcher: %v", err)
		}
	}
	if g.gpu != nil {
		g.gpu.Close()
	}
	if g.stopProfile != nil {
		if err := g.stopProfile(); err != nil {
			log.Printf("Stopping profile: %v", err)
		}
	}
}

// Update handles input, hands finished decodes and preset reloads to the
// scene, analyses the audio around the play position and ticks every grid.
func (g *Game) Update() error {
	g.pollAudio()
	g.handleDroppedFiles()
	g.pollPresets()
	g.handlePanel()
	g.handlePointer()
	if err := g.stepAutoBrush(); err != nil {
		return err
	}

	if samples := g.tap.Recent(g.analyser.FFTSize(), g.samples); samples != nil {
		g.analyser.Analyze(samples)
		g.samples = samples
	}

	start := time.Now()
	err := g.scene.Tick(g.updater, g.analyser)
	g.lastTickTime = time.Since(start)
	if err != nil {
		g.logTickError(err)
	}
	return nil
}

// pollAudio swaps in a finished decode.
func (g *Game) pollAudio() {
	res, ok := g.loader.Poll()
	if !ok {
		return
	}
	if res.Err != nil {
		log.Printf("Audio decode failed: %v", res.Err)
		g.setStatus("could not decode audio")
		return
	}
	g.tap.SetClip(res.Clip)
	g.analyser.Reset()
	log.Printf("Playing %s (%s, %d frames)", res.Clip.Name, res.Clip.Format, res.Clip.Frames())
	g.setStatus("playing " + res.Clip.Name)
}

// handleDroppedFiles starts decoding the first regular file dropped onto
// the window.
func (g *Game) handleDroppedFiles() {
	fsys := ebiten.DroppedFiles()
	if fsys == nil {
		return
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		log.Printf("Reading dropped files: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := g.loader.LoadFS(fsys, e.Name()); err != nil {
			log.Printf("Audio load failed: %v", err)
			continue
		}
		g.setStatus("decoding " + e.Name())
		return
	}
}

// loadPreset replaces the scene with the instances in path. On failure the
// current scene is kept.
func (g *Game) loadPreset(path string) {
	f, err := preset.Load(path)
	if err != nil {
		log.Printf("Preset ignored: %v", err)
		return
	}
	g.applyPreset(f)
}

func (g *Game) applyPreset(f *preset.File) {
	insts, err := f.Build(*gridDimFlag, grid.DefaultStyle())
	if err != nil {
		log.Printf("Preset ignored: %v", err)
		return
	}
	g.scene.Clear()
	for _, inst := range insts {
		if err := g.scene.Adopt(inst); err != nil {
			log.Printf("Preset instance %q skipped: %v", inst.Name, err)
		}
	}
	if g.scene.Len() == 0 {
		g.scene.Create(nil)
	}
	log.Printf("Preset applied: %d grids", g.scene.Len())
	g.setStatus(fmt.Sprintf("preset: %d grids", g.scene.Len()))
}

func (g *Game) pollPresets() {
	if g.presets == nil {
		return
	}
	select {
	case u := <-g.presets.Updates():
		if u.Err != nil {
			log.Printf("Preset reload failed, keeping current scene: %v", u.Err)
			return
		}
		g.applyPreset(u.File)
	default:
	}
}

// handlePointer paints with the left button, orbits with the right button
// and zooms with the wheel.
func (g *Game) handlePointer() {
	cx, cy := ebiten.CursorPosition()
	moved := cx != g.lastCursorX || cy != g.lastCursorY
	if _, wy := ebiten.Wheel(); wy > 0 {
		g.camera.Zoom(zoomStep)
	} else if wy < 0 {
		g.camera.Zoom(1 / zoomStep)
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		if g.orbiting {
			dx := float32(cx - g.lastCursorX)
			dy := float32(cy - g.lastCursorY)
			g.camera.Orbit(-dx*orbitSensitivity, dy*orbitSensitivity)
		}
		g.orbiting = true
	} else {
		g.orbiting = false
	}
	g.lastCursorX, g.lastCursorY = cx, cy

	g.paintDrag(cx, cy,
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		moved)
}

// paintDrag paints once when the button goes down and then once per tick
// in which the cursor moved. Holding still does not keep adding impulse.
func (g *Game) paintDrag(cx, cy int, pressed, justPressed, moved bool) bool {
	g.dragging = pressed
	if !pressed || (!justPressed && !moved) {
		return false
	}
	return g.brushAt(float32(cx), float32(cy))
}

// brushAt resolves a screen point onto the selected grid's plane and
// paints an impulse there.
func (g *Game) brushAt(sx, sy float32) bool {
	sel := g.scene.Selected()
	if sel == nil {
		return false
	}
	x, z, ok := view.PickPlane(g.camera.Ray(sx, sy), sel.Transform)
	if !ok {
		return false
	}
	return sel.ApplyImpulse(x, z, grid.DefaultBrushRadius)
}

// logTickError reports per-instance failures without flooding the log at
// the tick rate.
func (g *Game) logTickError(err error) {
	now := time.Now()
	if now.Sub(g.lastTickError) < tickErrorLogInterval {
		return
	}
	g.lastTickError = now
	if errors.Is(err, grid.ErrCorruptInstance) {
		log.Printf("Grid update skipped corrupt instances: %v", err)
		return
	}
	log.Printf("Grid update failed: %v", err)
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusUntil = time.Now().Add(3 * time.Second)
}
