// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"sync"
	"time"

	"key-decoder/internal/alignment"
	"key-decoder/internal/app"
	"key-decoder/internal/image"
	"key-decoder/internal/keydb"
	"key-decoder/internal/log"
	"key-decoder/internal/render"
	"key-decoder/internal/report"
	"key-decoder/internal/version"
	"key-decoder/ui/canvas"
	"key-decoder/ui/panels"
	"key-decoder/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const watchInterval = 2 * time.Second

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.KeyCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	watchMu sync.Mutex
	watcher *app.FileWatcher

	// Menu items that need state tracking
	showLabelsItem *fyne.MenuItem
	viewMenu       *fyne.Menu
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Key Decoder")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	state.SetPalette(p.Palette())
	state.SetShowLabels(p.Bool(prefs.KeyShowLabels, false))
	t := alignment.DefaultTransform()
	t.Ramp = p.Ramp()
	state.SetAlign(t)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	mw.SetOnClosed(func() {
		mw.watchDatabase("")
		mw.prefs.SetPalette(mw.state.Palette())
		if err := mw.prefs.Save(); err != nil {
			log.Errorf("Failed to save preferences: %v", err)
		}
	})

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	size := mw.prefs.CanvasSize()
	mw.canvas = canvas.NewKeyCanvas(size, render.InterpolatorByName(mw.prefs.String(prefs.KeyInterpolation)))
	mw.state.SetCanvasSize(size)

	// Create the side panel with tabs
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)

	// Create status bar
	mw.statusBar = widget.NewLabel("Ready")

	// Create main layout: side panel | canvas
	split := container.NewHSplit(
		mw.sidePanel.Container(),
		container.NewCenter(mw.canvas),
	)
	split.SetOffset(0.3)

	// Main container with status bar at bottom
	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(float32(size.Width)+420, float32(size.Height)+240))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	// File menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Database File...", mw.onOpenDatabaseFile),
		fyne.NewMenuItem("Open Database URL...", mw.onOpenDatabaseURL),
		fyne.NewMenuItem("Use Built-in Database", func() { mw.loadDatabase("") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
		fyne.NewMenuItem("Export Report...", mw.onExportReport),
	)

	// View menu
	mw.showLabelsItem = fyne.NewMenuItem("Show Labels", mw.onToggleLabels)
	mw.showLabelsItem.Checked = mw.state.ShowLabels()
	mw.viewMenu = fyne.NewMenu("View",
		mw.showLabelsItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Crop", func() { mw.sidePanel.SelectTab("Crop") }),
		fyne.NewMenuItem("Align", func() { mw.sidePanel.SelectTab("Align") }),
		fyne.NewMenuItem("Bitting", func() { mw.sidePanel.SelectTab("Bitting") }),
	)

	// Help menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, mw.viewMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventChanged, func(interface{}) {
		mw.canvas.ShowFrame(mw.state.Recompute())
		mw.prefs.SetString(prefs.KeyRamp, mw.state.Transform().Ramp.String())
		if mw.showLabelsItem.Checked != mw.state.ShowLabels() {
			mw.showLabelsItem.Checked = mw.state.ShowLabels()
			mw.viewMenu.Refresh()
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if p, ok := data.(*image.Photo); ok {
			mw.updateStatus(fmt.Sprintf("Photo: %s (%dx%d)", filepath.Base(p.Path), p.Width(), p.Height()))
		}
		mw.sidePanel.Sync()
	})

	mw.state.On(app.EventDatabaseLoaded, func(data interface{}) {
		if db, ok := data.(*keydb.Database); ok {
			mw.updateStatus(fmt.Sprintf("Database: %d entries from %s", db.Len(), sourceName(mw.state.DatabaseSource())))
		}
	})

	// Draw the initial (empty) frame
	mw.canvas.ShowFrame(mw.state.Recompute())
}

// Start loads the database named in the preferences and, when asked to,
// watches it for changes.
func (mw *MainWindow) Start() {
	mw.loadDatabase(mw.prefs.String(prefs.KeyDatabase))
}

// OpenPhoto loads a photo given on the command line.
func (mw *MainWindow) OpenPhoto(path string) {
	if !image.IsSupportedFormat(path) {
		mw.updateStatus("Not a supported photo: " + filepath.Base(path))
		log.Printf("Ignoring %s: expected %s", path, image.FileFilter())
		return
	}
	mw.saveLastDir(path)
	mw.loadPhoto(path)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) showError(err error) {
	if errors.Is(err, app.ErrStaleLoad) {
		return
	}
	dialog.ShowError(err, mw.Window)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastImageDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(filePath))
}

func (mw *MainWindow) loadPhoto(path string) {
	mw.updateStatus("Loading " + filepath.Base(path) + "...")
	go func() {
		if err := mw.state.LoadImage(context.Background(), path); err != nil {
			mw.showError(err)
		}
	}()
}

// loadDatabase fetches source in the background and restarts the file
// watcher for it.
func (mw *MainWindow) loadDatabase(source string) {
	mw.updateStatus("Loading database " + sourceName(source) + "...")
	go func() {
		if err := mw.state.LoadDatabase(context.Background(), source); err != nil {
			mw.showError(err)
			return
		}
		mw.prefs.SetString(prefs.KeyDatabase, source)
		mw.watchDatabase(source)
	}()
}

// watchDatabase replaces the current watcher; "" only stops it.
func (mw *MainWindow) watchDatabase(source string) {
	mw.watchMu.Lock()
	defer mw.watchMu.Unlock()

	if mw.watcher != nil {
		mw.watcher.Stop()
		mw.watcher = nil
	}
	if source == "" || keydb.IsURL(source) || !mw.prefs.Bool(prefs.KeyWatchDatabase, true) {
		return
	}

	w := app.NewFileWatcher(source, watchInterval)
	if w == nil {
		log.Printf("Database watch: unable to stat %s", source)
		return
	}
	w.OnChange(func() {
		log.Printf("Database watch: %s changed, reloading", source)
		if err := mw.state.LoadDatabase(context.Background(), source); err != nil {
			log.Errorf("Database reload failed: %v", err)
		}
	})
	w.Start()
	mw.watcher = w
}

// Menu action handlers

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		uri := reader.URI()
		if uri.Scheme() == "file" {
			reader.Close()
			mw.saveLastDir(uri.Path())
			mw.loadPhoto(uri.Path())
			return
		}

		// Portal and content URIs have no usable path; decode from the reader
		defer reader.Close()
		photo, err := image.Decode(reader, uri.Name())
		if err != nil {
			mw.showError(err)
			return
		}
		mw.state.SetPhoto(photo)
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenDatabaseFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.loadDatabase(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func (mw *MainWindow) onOpenDatabaseURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://")
	if src := mw.state.DatabaseSource(); keydb.IsURL(src) {
		entry.SetText(src)
	}
	dialog.ShowForm("Open Database URL", "Load", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			if ok && entry.Text != "" {
				mw.loadDatabase(entry.Text)
			}
		}, mw.Window)
}

func (mw *MainWindow) onExportReport() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := mw.state.Report().Write(writer); err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("key" + report.Ext)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := png.Encode(writer, mw.canvas.Composite()); err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("key.png")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	fd.Show()
}

func (mw *MainWindow) onToggleLabels() {
	show := !mw.state.ShowLabels()
	mw.prefs.SetBool(prefs.KeyShowLabels, show)
	mw.state.SetShowLabels(show)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Key Decoder",
		fmt.Sprintf("Key Decoder v%s\n\n"+
			"Reads the bitting of a key from a photograph.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// sourceName describes a database source for the status bar.
func sourceName(source string) string {
	if source == "" {
		return "built-in"
	}
	if keydb.IsURL(source) {
		return source
	}
	return filepath.Base(source)
}
