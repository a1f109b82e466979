// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"floorplan-studio/internal/app"
	"floorplan-studio/internal/imageload"
	"floorplan-studio/internal/input"
	"floorplan-studio/internal/labels"
	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/refine"
	"floorplan-studio/internal/version"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/internal/workspace"
	wscanvas "floorplan-studio/ui/canvas"
	"floorplan-studio/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir  = "lastDirectory"
	prefKeyLastTool = "lastTool"
	prefKeyWinW     = "windowWidth"
	prefKeyWinH     = "windowHeight"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	ws     *workspace.Workspace
	canvas *wscanvas.WorkspaceCanvas

	imageList *widget.List
	resetView *widget.Button
	statusBar *widget.Label

	nextID int
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Floorplan Studio")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  appPrefs,
	}

	// Loader completions must serialize with pointer input; route them
	// through the canvas dispatcher. The closure is captured before the
	// canvas exists but only invoked after it does.
	loader := imageload.NewLoader(func(fn func()) {
		mw.canvas.Dispatch(fn)
	})
	mw.ws = workspace.New(loader)
	mw.canvas = wscanvas.New(mw.ws)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restorePreferences()

	// The coalesced publish path keeps toolbar state in sync without a
	// refresh per pointer move.
	mw.ws.Viewport().OnPublish(func(viewport.State) {
		mw.updateResetView()
	})

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.imageList = widget.NewList(
		func() int { return len(mw.state.Images()) },
		func() fyne.CanvasObject { return widget.NewLabel("image") },
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			images := mw.state.Images()
			if i < len(images) {
				obj.(*widget.Label).SetText(images[i].ID)
			}
		},
	)
	mw.imageList.OnSelected = func(i widget.ListItemID) {
		images := mw.state.Images()
		if i < len(images) {
			mw.state.SetSelected(images[i].ID)
		}
	}

	mw.resetView = widget.NewButtonWithIcon("Reset View", theme.ZoomFitIcon(), func() {
		mw.canvas.ResetView()
	})
	mw.resetView.Disable()

	undo := widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), nil)
	undo.Disable() // mask history is not recorded

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Pan", theme.MoveUpIcon(), func() { mw.setTool(input.ToolPan) }),
		widget.NewButtonWithIcon("Erase", theme.ContentClearIcon(), func() { mw.setTool(input.ToolErase) }),
		widget.NewButtonWithIcon("Restore", theme.ContentRedoIcon(), func() { mw.setTool(input.ToolRestore) }),
		widget.NewSeparator(),
		mw.resetView,
		undo,
	)

	mw.statusBar = widget.NewLabel(fmt.Sprintf("Floorplan Studio v%s", version.Version))

	side := container.NewBorder(
		widget.NewButtonWithIcon("Add Image", theme.ContentAddIcon(), mw.addImage),
		nil, nil, nil,
		mw.imageList,
	)

	content := container.NewBorder(toolbar, mw.statusBar, side, nil, mw.canvas)
	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 800))
}

// setupMenus creates the menu bar.
func (mw *MainWindow) setupMenus() {
	maskMenu := fyne.NewMenu("Mask",
		fyne.NewMenuItem("Clean Mask", mw.cleanMask),
		fyne.NewMenuItem("Extract Labels", mw.extractLabels),
	)
	mw.SetMainMenu(fyne.NewMainMenu(maskMenu))
}

// setupEventHandlers subscribes the canvas to session state changes.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImagesChanged, func(data interface{}) {
		if images, ok := data.([]mask.ImageRef); ok {
			mw.canvas.SetImages(images)
			mw.imageList.Refresh()
		}
	})
	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		if id, ok := data.(string); ok {
			mw.canvas.SetSelected(id)
			mw.setStatus("Selected " + id)
		}
	})
	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(input.Tool); ok {
			mw.canvas.SetTool(tool)
			mw.setStatus(tool.String() + " tool")
		}
	})
}

func (mw *MainWindow) setTool(tool input.Tool) {
	mw.state.SetTool(tool)
	mw.prefs.SetString(prefKeyLastTool, tool.String())
}

// updateResetView runs on the engines' dispatch path; it reads the viewport
// engine directly rather than through the canvas lock.
func (mw *MainWindow) updateResetView() {
	if mw.ws.Viewport().IsDefault() {
		mw.resetView.Disable()
	} else {
		mw.resetView.Enable()
	}
}

func (mw *MainWindow) setStatus(msg string) {
	mw.statusBar.SetText(msg)
}

// addImage prompts for an image file and adds it to the session.
func (mw *MainWindow) addImage() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()

		mw.prefs.SetString(prefKeyLastDir, filepath.Dir(path))
		mw.nextID++
		id := fmt.Sprintf("img%d", mw.nextID)
		mw.state.AddImage(mask.ImageRef{ID: id, URL: path})
		mw.state.SetSelected(id)
		mw.state.SetModified(true)
	}, mw.Window)
	fd.Show()
}

// cleanMask runs morphological cleanup on the selected image's mask.
func (mw *MainWindow) cleanMask() {
	mw.canvas.Dispatch(func() {
		raster := mw.ws.Masks().MaskRaster("")
		if raster == nil {
			return
		}
		cleaned, err := refine.Clean(raster, refine.DefaultOptions())
		if err != nil {
			log.Printf("mask cleanup failed: %v", err)
			return
		}
		mw.ws.Masks().ApplyMask("", cleaned.Pix)
	})
	mw.setStatus("Mask cleaned")
}

// extractLabels OCRs room labels from the visible regions of the selected
// image.
func (mw *MainWindow) extractLabels() {
	engine, err := labels.NewEngine()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	defer engine.Close()

	masks := mw.ws.Masks()
	img := masks.BaseImage("")
	raster := masks.MaskRaster("")
	if img == nil || raster == nil {
		mw.setStatus("No image selected")
		return
	}

	found, err := engine.ExtractVisible(img, masks.BooleanMask(""), raster.Width, raster.Height)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if len(found) == 0 {
		dialog.ShowInformation("Room Labels", "No labels found in visible regions.", mw.Window)
		return
	}
	dialog.ShowInformation("Room Labels", strings.Join(found, "\n"), mw.Window)
}

func (mw *MainWindow) restorePreferences() {
	w := mw.prefs.FloatWithFallback(prefKeyWinW, 1200)
	h := mw.prefs.FloatWithFallback(prefKeyWinH, 800)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
}

// SavePreferences persists window geometry and the armed tool.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefKeyWinW, float64(size.Width))
	mw.prefs.SetFloat(prefKeyWinH, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		log.Printf("failed to save preferences: %v", err)
	}
}

// Teardown cancels any in-progress gesture before the window closes.
func (mw *MainWindow) Teardown() {
	mw.canvas.Teardown()
}
