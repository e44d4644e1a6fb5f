package main

import (
	"embed"
	"log"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"voicehud/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Window geometry is needed before startup runs; a broken config file
	// falls back to defaults here and is reported during startup.
	cfg, _ := config.Load()

	app := NewApp()

	err := wails.Run(&options.App{
		Title:  "VoiceHUD",
		Width:  cfg.UI.BarWidth,
		Height: 96,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      true,
		StartHidden:      true,
		DisableResize:    true,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
