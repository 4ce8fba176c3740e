package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ARG/internal/grid"
)

const (
	heightScaleStep   = 0.25
	strengthScaleStep = 0.1
)

// palette is the set of colours the 1/2/3 keys step each gradient stop
// through.
var palette = []string{
	"#0d47a1", "#00e5ff", "#ff4081", "#000000", "#ffffff",
	"#ff6f00", "#76ff03", "#d500f9", "#ffea00", "#1de9b6",
}

// handlePanel processes the parameter hotkeys. Style edits apply to the
// selected grid and take effect on the next tick.
func (g *Game) handlePanel() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		inst := g.scene.Create(nil)
		g.setStatus(fmt.Sprintf("new grid %d", inst.ID))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if sel := g.scene.Selected(); sel != nil {
			inst := g.scene.Create(sel)
			g.setStatus(fmt.Sprintf("cloned %q", inst.Name))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if sel := g.scene.Selected(); sel != nil {
			if err := g.scene.Remove(sel); err != nil {
				log.Printf("Remove failed: %v", err)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		delta := 1
		if shift {
			delta = -1
		}
		g.scene.SelectNext(delta)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.tap.TogglePause() {
			g.setStatus("paused")
		} else {
			g.setStatus("playing")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.glow = !g.glow
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.wireframe = !g.wireframe
	}

	sel := g.scene.Selected()
	if sel == nil {
		return
	}
	st := &sel.Style
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		st.Pattern = st.Pattern.Next()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		st.Mapping = st.Mapping.Next()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		st.Range = st.Range.Next()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		st.HeightMode = st.HeightMode.Next()
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		st.Visible = !st.Visible
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		sel.ResetImpulses()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeftBracket):
		st.DecayRate -= decayStep
	case inpututil.IsKeyJustPressed(ebiten.KeyRightBracket):
		st.DecayRate += decayStep
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		st.HeightScale -= heightScaleStep
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		st.HeightScale += heightScaleStep
	case inpututil.IsKeyJustPressed(ebiten.KeyComma):
		st.StrengthScale -= strengthScaleStep
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		st.StrengthScale += strengthScaleStep
	case inpututil.IsKeyJustPressed(ebiten.Key1):
		st.Low = nextPaletteColor(st.Low, shift)
	case inpututil.IsKeyJustPressed(ebiten.Key2):
		st.Mid = nextPaletteColor(st.Mid, shift)
	case inpututil.IsKeyJustPressed(ebiten.Key3):
		st.High = nextPaletteColor(st.High, shift)
	default:
		return
	}
	*st = st.Clamp()
}

// nextPaletteColor steps c to the neighbouring palette entry. Colours not
// in the palette start from its first entry.
func nextPaletteColor(c grid.RGB, back bool) grid.RGB {
	cur := c.Hex()
	idx := -1
	for i, hex := range palette {
		if hex == cur {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		idx = 0
	case back:
		idx = (idx + len(palette) - 1) % len(palette)
	default:
		idx = (idx + 1) % len(palette)
	}
	rgb, err := grid.ParseHex(palette[idx])
	if err != nil {
		return c
	}
	return rgb
}
