package main

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"ARG/internal/grid"
	"ARG/internal/view"
)

var (
	backgroundColor = color.RGBA{8, 8, 16, 255}
	selectionColor  = color.RGBA{255, 255, 255, 160}
	brushColor      = color.RGBA{255, 200, 0, 200}
)

// whiteSubImage is the 1x1 source every mesh triangle samples; vertex
// colours carry the gradient.
var whiteSubImage *ebiten.Image

func meshSource() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// quad is one grid cell's two triangles, keyed by its top-left vertex.
type quad struct {
	base  int
	depth float32
}

// Draw renders every visible grid back to front, the selection outline and
// brush cursor, the optional glow pass and the overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	target := screen
	if g.glow {
		if g.frame == nil {
			g.frame = ebiten.NewImage(screenW, screenH)
		}
		target = g.frame
	}
	target.Fill(backgroundColor)

	for _, inst := range g.drawOrder() {
		g.drawInstance(target, inst)
	}
	g.drawSelection(target)

	if g.glow {
		g.composeGlow(screen)
	}
	g.drawOverlay(screen)
}

// Layout reports the logical screen size used by Ebiten.
func (g *Game) Layout(_, _ int) (int, int) { return screenW, screenH }

// drawOrder returns the visible instances sorted far to near by the depth
// of their origin.
func (g *Game) drawOrder() []*grid.Instance {
	insts := g.scene.Instances()
	type entry struct {
		inst  *grid.Instance
		depth float32
	}
	order := make([]entry, 0, len(insts))
	for _, inst := range insts {
		if !inst.Style.Visible {
			continue
		}
		_, _, depth, _ := g.camera.Project(inst.Transform.Position)
		order = append(order, entry{inst, depth})
	}
	slices.SortStableFunc(order, func(a, b entry) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	out := make([]*grid.Instance, len(order))
	for i, e := range order {
		out[i] = e.inst
	}
	return out
}

// drawInstance projects the height field and draws it as a coloured
// triangle mesh, or as its cell edges in wireframe mode. Cells are
// painter-sorted since ebiten has no depth buffer.
func (g *Game) drawInstance(dst *ebiten.Image, inst *grid.Instance) {
	n := inst.Dim
	cells := inst.CellCount()
	if len(inst.Heights) != cells || len(inst.Colors) != 3*cells {
		return
	}
	g.vertices = g.vertices[:0]
	g.projected = g.projected[:0]
	depths := make([]float32, cells)
	for i := 0; i < cells; i++ {
		x, z := inst.CellPosition(i)
		p := inst.Transform.ToWorld(view.Vec3{x, inst.Heights[i], z})
		sx, sy, depth, ok := g.camera.Project(p)
		c := inst.ColorAt(i)
		g.vertices = append(g.vertices, ebiten.Vertex{
			DstX:   sx,
			DstY:   sy,
			SrcX:   1,
			SrcY:   1,
			ColorR: c[0],
			ColorG: c[1],
			ColorB: c[2],
			ColorA: 1,
		})
		g.projected = append(g.projected, ok)
		depths[i] = depth
	}

	if g.wireframe {
		g.edges = gridEdges(n, g.projected, g.edges[:0])
		for _, e := range g.edges {
			a, b := g.vertices[e[0]], g.vertices[e[1]]
			clr := color.NRGBA{uint8(a.ColorR * 255), uint8(a.ColorG * 255), uint8(a.ColorB * 255), 255}
			vector.StrokeLine(dst, a.DstX, a.DstY, b.DstX, b.DstY, wireframeWidth, clr, true)
		}
		return
	}

	g.quads = g.quads[:0]
	for row := 0; row < n-1; row++ {
		for col := 0; col < n-1; col++ {
			i := row*n + col
			if !g.projected[i] || !g.projected[i+1] || !g.projected[i+n] || !g.projected[i+n+1] {
				continue
			}
			d := (depths[i] + depths[i+1] + depths[i+n] + depths[i+n+1]) / 4
			g.quads = append(g.quads, quad{base: i, depth: d})
		}
	}
	slices.SortFunc(g.quads, func(a, b quad) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})

	g.indices = g.indices[:0]
	for _, q := range g.quads {
		i := uint16(q.base)
		right := i + 1
		down := i + uint16(n)
		diag := down + 1
		g.indices = append(g.indices, i, right, down, right, diag, down)
	}
	if len(g.indices) == 0 {
		return
	}
	dst.DrawTriangles(g.vertices, g.indices, meshSource(), &ebiten.DrawTrianglesOptions{})
}

// gridEdges appends to dst the vertex index pairs of every row and column
// segment of an n x n lattice whose endpoints both projected.
func gridEdges(n int, projected []bool, dst [][2]int) [][2]int {
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			i := row*n + col
			if !projected[i] {
				continue
			}
			if col+1 < n && projected[i+1] {
				dst = append(dst, [2]int{i, i + 1})
			}
			if row+1 < n && projected[i+n] {
				dst = append(dst, [2]int{i, i + n})
			}
		}
	}
	return dst
}

// drawSelection outlines the selected grid's base plane and, while the
// cursor is over it, the brush footprint.
func (g *Game) drawSelection(dst *ebiten.Image) {
	sel := g.scene.Selected()
	if sel == nil || !sel.Style.Visible {
		return
	}
	half := float32(grid.Extent) / 2
	corners := [4]view.Vec3{{-half, 0, -half}, {half, 0, -half}, {half, 0, half}, {-half, 0, half}}
	var pts [4][2]float32
	for i, c := range corners {
		sx, sy, _, ok := g.camera.Project(sel.Transform.ToWorld(c))
		if !ok {
			return
		}
		pts[i] = [2]float32{sx, sy}
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		vector.StrokeLine(dst, a[0], a[1], b[0], b[1], wireframeWidth, selectionColor, true)
	}

	cx, cy := ebiten.CursorPosition()
	x, z, ok := view.PickPlane(g.camera.Ray(float32(cx), float32(cy)), sel.Transform)
	if !ok || x < -half || x > half || z < -half || z > half {
		return
	}
	center := sel.Transform.ToWorld(view.Vec3{x, 0, z})
	edge := sel.Transform.ToWorld(view.Vec3{x + grid.DefaultBrushRadius, 0, z})
	sx0, sy0, _, ok0 := g.camera.Project(center)
	sx1, sy1, _, ok1 := g.camera.Project(edge)
	if !ok0 || !ok1 {
		return
	}
	r := view.Vec3{sx1 - sx0, sy1 - sy0, 0}.Len()
	vector.StrokeCircle(dst, sx0, sy0, r, wireframeWidth, brushColor, true)
}

// composeGlow draws the frame, then adds a blurred copy made by
// downscaling and upscaling with linear filtering.
func (g *Game) composeGlow(screen *ebiten.Image) {
	screen.DrawImage(g.frame, nil)
	if g.glowSmall == nil {
		g.glowSmall = ebiten.NewImage(screenW/glowDownscale, screenH/glowDownscale)
	}
	g.glowSmall.Clear()
	down := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	down.GeoM.Scale(1.0/glowDownscale, 1.0/glowDownscale)
	g.glowSmall.DrawImage(g.frame, down)

	up := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear, Blend: ebiten.BlendLighter}
	up.GeoM.Scale(glowDownscale, glowDownscale)
	up.ColorScale.Scale(glowStrength, glowStrength, glowStrength, glowStrength)
	screen.DrawImage(g.glowSmall, up)
}

// drawOverlay prints the status line and, with -debug, frame timing, the
// analyser and loader state and the selected style.
func (g *Game) drawOverlay(screen *ebiten.Image) {
	var b strings.Builder
	if *debugFlag {
		fmt.Fprintf(&b, "FPS: %.1f  TPS: %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
		fmt.Fprintf(&b, "Grids: %d  Tick: %.2f ms  Glow: %v  Wireframe: %v\n", g.scene.Len(), g.lastTickTime.Seconds()*1000, g.glow, g.wireframe)
		fmt.Fprintf(&b, "Spectrum: %d bins ready=%v  Loads: %d\n", g.analyser.BinCount(), g.analyser.Ready(), g.loader.Generation())
		if clip := g.tap.Clip(); clip != nil {
			fmt.Fprintf(&b, "Audio: %s %s paused=%v\n", clip.Name, g.tap.Position().Truncate(time.Second/10), g.tap.Paused())
		} else {
			b.WriteString("Audio: none (drop a file)\n")
		}
		if sel := g.scene.Selected(); sel != nil {
			st := sel.Style
			fmt.Fprintf(&b, "Selected: %d %q (%dx%d) visible=%v\n", sel.ID, sel.Name, sel.Dim, sel.Dim, st.Visible)
			fmt.Fprintf(&b, "Pattern %s  Mapping %s  Range %s  Height %s\n", st.Pattern, st.Mapping, st.Range, st.HeightMode)
			fmt.Fprintf(&b, "Decay %.3f  Height %.2f  Strength %.2f  Peak %.2f\n", st.DecayRate, st.HeightScale, st.StrengthScale, sel.PeakImpulse())
			fmt.Fprintf(&b, "Colors %s %s %s\n", st.Low.Hex(), st.Mid.Hex(), st.High.Hex())
		}
	}
	if g.status != "" && time.Now().Before(g.statusUntil) {
		b.WriteString(g.status)
	}
	if b.Len() > 0 {
		ebitenutil.DebugPrint(screen, b.String())
	}
}
