// Package main provides the entry point for the Key Decoder application.
package main

import (
	"os"

	"key-decoder/internal/app"
	"key-decoder/internal/log"
	"key-decoder/internal/version"
	"key-decoder/ui/mainwindow"
	"key-decoder/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.github.keydecoder"

func main() {
	appPrefs := prefs.Load()

	closer := log.Setup(log.Options{
		File:       appPrefs.String(prefs.KeyLogFile),
		MaxSizeMB:  10,
		MaxBackups: 3,
		Debug:      appPrefs.Bool(prefs.KeyDebug, false),
	})
	defer closer.Close()

	log.Printf("Starting %s", version.String())

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(app.NewTheme(appPrefs.Palette()))

	appState := app.NewState()
	win := mainwindow.New(fyneApp, appState, appPrefs)
	win.Start()

	// Handle command line arguments
	if len(os.Args) > 1 {
		win.OpenPhoto(os.Args[1])
	}

	win.ShowAndRun()
}
