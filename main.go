package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"beespeak/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	level := slog.LevelInfo
	if cfg, err := config.Load(); err == nil {
		level = cfg.Log.SlogLevel()
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app := NewApp(logger)
	err := wails.Run(&options.App{
		Title:     "BeeSpeak",
		Width:     480,
		Height:    820,
		MinWidth:  360,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []interface{}{app},
	})
	if err != nil {
		logger.Error("application exited", "error", err)
		os.Exit(1)
	}
}
