package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/hajimehoshi/ebiten/v2"

	"ARG/internal/grid"
)

// enableAutoBrush wanders a brush over the selected grid. A zero duration
// keeps it running until the window closes.
func (g *Game) enableAutoBrush(duration time.Duration) {
	g.autoBrush = true
	g.autoBrushDeadline = time.Time{}
	if duration > 0 {
		g.autoBrushDeadline = time.Now().Add(duration)
	}
	if g.autoBrushRand == nil {
		g.autoBrushRand = rand.New(rand.NewSource(time.Now().UnixNano() + 3))
	}
	g.autoBrushX, g.autoBrushZ = 0, 0
	g.autoBrushFrameLeft = 0
}

// stepAutoBrush advances the scripted brush by one frame. When a timed run
// that is recording a profile ends, it stops the profile and terminates.
func (g *Game) stepAutoBrush() error {
	if !g.autoBrush {
		return nil
	}
	if !g.autoBrushDeadline.IsZero() && time.Now().After(g.autoBrushDeadline) {
		g.autoBrush = false
		if g.stopProfile != nil {
			err := g.stopProfile()
			g.stopProfile = nil
			if err != nil {
				log.Printf("PGO recording failed: %v", err)
			} else {
				log.Printf("default.pgo written")
			}
			return ebiten.Termination
		}
		return nil
	}
	sel := g.scene.Selected()
	if sel == nil {
		return nil
	}
	dx, dz := g.autoBrushVector()
	g.autoBrushX += dx
	g.autoBrushZ += dz
	sel.ApplyImpulse(g.autoBrushX, g.autoBrushZ, autoBrushRadius)
	return nil
}

// autoBrushVector returns a pseudo-random heading that keeps the brush on
// the grid, turning away from the edges.
func (g *Game) autoBrushVector() (float32, float32) {
	half := float32(grid.Extent) / 2
	for attempts := 0; attempts < 5; attempts++ {
		if g.autoBrushFrameLeft <= 0 {
			g.randomizeAutoBrushDirection()
		}
		nextX := g.autoBrushX + g.autoBrushDirX*autoBrushSpeed
		nextZ := g.autoBrushZ + g.autoBrushDirZ*autoBrushSpeed
		if nextX > -half && nextX < half && nextZ > -half && nextZ < half {
			g.autoBrushFrameLeft--
			return g.autoBrushDirX * autoBrushSpeed, g.autoBrushDirZ * autoBrushSpeed
		}
		g.autoBrushFrameLeft = 0
	}
	return 0, 0
}

func (g *Game) randomizeAutoBrushDirection() {
	angle := g.autoBrushRand.Float32() * 2 * math32.Pi
	g.autoBrushDirZ, g.autoBrushDirX = math32.Sincos(angle)
	g.autoBrushFrameLeft = 20 + g.autoBrushRand.Intn(50)
}
