// Package main provides the entry point for the Floorplan Studio application.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	internalapp "floorplan-studio/internal/app"
	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/version"
	"floorplan-studio/ui/mainwindow"
	"floorplan-studio/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appTitle = "Floorplan Studio"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("studio.floorplan")
	fyneApp.Settings().SetTheme(&internalapp.StudioTheme{})

	appState := internalapp.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)
	win.SetTitle(appTitle)
	win.SetOnClosed(func() {
		win.Teardown()
		win.SavePreferences()
	})

	// Image paths on the command line become the initial session.
	if len(os.Args) > 1 {
		var images []mask.ImageRef
		for i, path := range os.Args[1:] {
			images = append(images, mask.ImageRef{
				ID:  fmt.Sprintf("img%d", i+1),
				URL: path,
			})
			log.Printf("Queued %s", filepath.Base(path))
		}
		appState.SetImages(images)
		appState.SetSelected(images[0].ID)
	}

	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is
// recompiled.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := internalapp.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.Baseline().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				log.Println("Hot reload: saving preferences before restart...")
				win.SavePreferences()
				log.Println("Hot reload: restarting...")
				if err := reloader.Restart(); err != nil {
					log.Printf("Hot reload: restart failed: %v", err)
				}
			}, win.Window)
	})

	reloader.Start()
}
