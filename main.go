package main

import (
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	flag.Parse()

	g, err := newGame()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer g.Close()

	if *recordDefaultPGO {
		stop, err := startDefaultPGORecording("default.pgo")
		if err != nil {
			log.Fatalf("PGO recording failed: %v", err)
		}
		g.stopProfile = stop
		g.enableAutoBrush(pgoRecordDuration)
		log.Printf("Recording default.pgo for %s", pgoRecordDuration)
	} else if *autoBrushFlag {
		g.enableAutoBrush(0)
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(defaultTPS)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Printf("Run failed: %v", err)
	}
}
