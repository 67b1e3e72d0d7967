// Command keyrender decodes a key photo without the GUI: it applies the crop,
// transform and landmarks given as flags, renders the three decoder surfaces
// to a PNG and prints the bitting or writes a decode report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"strings"

	"key-decoder/internal/alignment"
	"key-decoder/internal/app"
	"key-decoder/internal/calibration"
	"key-decoder/internal/image"
	"key-decoder/internal/log"
	"key-decoder/internal/render"
	"key-decoder/internal/version"
	"key-decoder/pkg/geometry"
)

// options holds the parsed command line.
type options struct {
	db, image, report string
	brand, typeName   string
	cuts              int
	bitting           string

	cropLeft, cropTop, cropWidth, cropHeight float64

	rotate        float64
	hflip, vflip  bool
	slices        int
	ratio         float64
	ramp          string
	interp        string
	width, height float64

	bottom, top, shoulder, tip float64

	labels  bool
	output  string
	check   bool
	list    bool
	debug   bool
	version bool

	set map[string]bool // Flags given explicitly
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "keyrender: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("keyrender", flag.ContinueOnError)

	fs.StringVar(&o.db, "db", "", "Key database file or URL (default built-in)")
	fs.StringVar(&o.image, "image", "", "Path to key photo: "+image.FileFilter())
	fs.StringVar(&o.brand, "brand", "", "Brand name")
	fs.StringVar(&o.typeName, "type", "", "Key type name")
	fs.IntVar(&o.cuts, "cuts", 0, "Number of cuts (default: profile minimum)")
	fs.StringVar(&o.bitting, "bitting", "", "Bitting code, e.g. 35214 or 3,5,2,1,4")

	fs.Float64Var(&o.cropLeft, "crop-left", 0, "Crop left edge (% of photo)")
	fs.Float64Var(&o.cropTop, "crop-top", 0, "Crop top edge (% of photo)")
	fs.Float64Var(&o.cropWidth, "crop-width", 100, "Crop width (% of photo)")
	fs.Float64Var(&o.cropHeight, "crop-height", 100, "Crop height (% of photo)")

	fs.Float64Var(&o.rotate, "rotate", 0, "Rotation in degrees")
	fs.BoolVar(&o.hflip, "hflip", false, "Flip horizontally")
	fs.BoolVar(&o.vflip, "vflip", false, "Flip vertically")
	fs.IntVar(&o.slices, "slices", 1, "Keystone slice count")
	fs.Float64Var(&o.ratio, "ratio", 1, "Keystone ratio")
	fs.StringVar(&o.ramp, "ramp", "legacy", "Keystone ramp: legacy or exact")
	fs.StringVar(&o.interp, "interp", "", "Resampling: nearest, bilinear, catmullrom (default approximate bilinear)")
	fs.Float64Var(&o.width, "width", app.DefaultCanvasSize.Width, "Canvas width in pixels")
	fs.Float64Var(&o.height, "height", app.DefaultCanvasSize.Height, "Canvas height in pixels")

	fs.Float64Var(&o.bottom, "bottom", -1, "Bottom line (% of canvas height, <0 unset)")
	fs.Float64Var(&o.top, "top", -1, "Top line (% of canvas height, <0 unset)")
	fs.Float64Var(&o.shoulder, "shoulder", -1, "Shoulder line (% of canvas width, <0 unset)")
	fs.Float64Var(&o.tip, "tip", -1, "Tip line (% of canvas width, <0 unset)")

	fs.BoolVar(&o.labels, "labels", false, "Label bitting markers")
	fs.StringVar(&o.output, "o", "", "Write the rendered canvas to this PNG")
	fs.StringVar(&o.report, "report", "", "Write a JSON decode report to this file (- for stdout)")
	fs.BoolVar(&o.check, "check", false, "Validate the database and print calibration and marker positions")
	fs.BoolVar(&o.list, "list", false, "List brands and types and exit")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(out, version.String())
		return nil
	}
	log.SetDebug(o.debug)

	if o.image != "" && !image.IsSupportedFormat(o.image) {
		return fmt.Errorf("unsupported photo format: %s", o.image)
	}

	ctx := context.Background()
	state := app.NewState()
	state.SetCanvasSize(geometry.Size{Width: o.width, Height: o.height})

	if err := state.LoadAll(ctx, o.db, o.image); err != nil {
		return err
	}

	if o.list {
		listTypes(state, out)
		return nil
	}
	if o.check {
		if err := checkDatabase(state, out); err != nil {
			return err
		}
	}

	if err := selectKey(state, o); err != nil {
		return err
	}
	applyControls(state, o)

	if o.check || (o.output == "" && o.report == "") {
		printSummary(state, out)
	}
	if o.report != "" {
		if err := writeReport(state, o.report, out); err != nil {
			return err
		}
	}
	if o.output != "" {
		if err := writePNG(state, o); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", o.output)
	}
	return nil
}

// listTypes prints every brand with its key types.
func listTypes(state *app.State, out io.Writer) {
	for _, brand := range state.Brands() {
		names := []string{}
		for _, t := range state.SelectBrand(brand) {
			names = append(names, t.Name)
		}
		fmt.Fprintf(out, "%s: %s\n", brand, strings.Join(names, ", "))
	}
}

// checkDatabase prints every entry that fails validation.
func checkDatabase(state *app.State, out io.Writer) error {
	db := state.Database()
	problems := db.Validate()
	if len(problems) == 0 {
		fmt.Fprintf(out, "Database: %d entries, no problems\n", db.Len())
		return nil
	}
	fmt.Fprintf(out, "Database: %d entries, %d problems\n", db.Len(), len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  entry %d: %v\n", p.Index, p.Err)
	}
	return fmt.Errorf("database has %d invalid entries", len(problems))
}

// selectKey applies -brand, -type, -cuts and -bitting.
func selectKey(state *app.State, o *options) error {
	if o.brand == "" {
		if o.typeName != "" || o.bitting != "" {
			return fmt.Errorf("-type and -bitting need -brand")
		}
		return nil
	}

	types := state.SelectBrand(o.brand)
	if len(types) == 0 {
		return fmt.Errorf("unknown brand %q", o.brand)
	}
	if o.typeName != "" {
		found := false
		for _, t := range types {
			if strings.EqualFold(t.Name, o.typeName) {
				found = state.SelectTypeRef(t)
				break
			}
		}
		if !found {
			return fmt.Errorf("brand %q has no type %q", o.brand, o.typeName)
		}
	}

	p, ok := state.Profile()
	if !ok {
		return nil
	}
	if o.cuts != 0 {
		if o.cuts < p.MinCuts || o.cuts > p.MaxCuts {
			return fmt.Errorf("%d cuts outside %d-%d", o.cuts, p.MinCuts, p.MaxCuts)
		}
		state.SelectCutCount(o.cuts)
	}
	if o.bitting != "" {
		b, err := alignment.ParseBitting(o.bitting, &p)
		if err != nil {
			return err
		}
		// The code's length sets the cut count, so it must agree with -cuts.
		if o.cuts != 0 && len(b) != o.cuts {
			return fmt.Errorf("bitting %q has %d cuts, -cuts is %d", o.bitting, len(b), o.cuts)
		}
		if len(b) < p.MinCuts || len(b) > p.MaxCuts {
			return fmt.Errorf("bitting %q has %d cuts, outside %d-%d", o.bitting, len(b), p.MinCuts, p.MaxCuts)
		}
		state.SetBitting(b)
	}
	return nil
}

// applyControls applies the crop, transform and landmark flags. Flags that
// were not given keep the state's defaults.
func applyControls(state *app.State, o *options) {
	crop := state.Crop()
	cropSet := false
	for _, f := range []struct {
		name string
		dst  *float64
		val  float64
	}{
		{"crop-left", &crop.Left, o.cropLeft},
		{"crop-top", &crop.Top, o.cropTop},
		{"crop-width", &crop.Width, o.cropWidth},
		{"crop-height", &crop.Height, o.cropHeight},
	} {
		if o.set[f.name] {
			*f.dst = f.val
			cropSet = true
		}
	}
	if cropSet {
		state.SetCrop(crop)
	}

	t := state.Transform()
	if o.set["rotate"] {
		t.RotationDegrees = o.rotate
	}
	if o.set["hflip"] {
		t.HFlip = o.hflip
	}
	if o.set["vflip"] {
		t.VFlip = o.vflip
	}
	if o.set["slices"] {
		t.KeystoneSlices = o.slices
	}
	if o.set["ratio"] {
		t.KeystoneRatio = o.ratio
	}
	if o.set["ramp"] {
		t.Ramp = alignment.ParseRamp(o.ramp)
	}
	state.SetAlign(t)

	l := state.Landmarks()
	setMark := func(name string, v float64, m *calibration.Mark) {
		if !o.set[name] {
			return
		}
		if v < 0 {
			*m = calibration.Mark{}
		} else {
			*m = calibration.At(v)
		}
	}
	setMark("bottom", o.bottom, &l.Bottom)
	setMark("top", o.top, &l.Top)
	setMark("shoulder", o.shoulder, &l.Shoulder)
	setMark("tip", o.tip, &l.Tip)
	state.SetLandmarks(l)

	state.SetShowLabels(o.labels)
}

// printSummary prints the selection, calibration and marker positions.
func printSummary(state *app.State, out io.Writer) {
	p, ok := state.Profile()
	if !ok {
		fmt.Fprintln(out, "No key selected")
		return
	}
	fmt.Fprintf(out, "Key: %s %s, %d cuts\n", state.Brand(), state.TypeName(), state.CutCount())
	fmt.Fprintf(out, "Bitting: %s\n", state.Bitting().Code(&p))

	sc := state.Calibration()
	if !sc.Calibrated() {
		fmt.Fprintln(out, "Not calibrated")
		return
	}
	fmt.Fprintf(out, "Scale: %.3f px/mm horizontal, %.3f px/mm vertical\n", sc.HorizontalPxPerMM, sc.VerticalPxPerMM)

	markers, ok := state.Markers()
	if !ok {
		return
	}
	for _, m := range markers {
		fmt.Fprintf(out, "  cut %d: %s at (%.1f, %.1f)\n", m.Cut+1, m.Label, m.X, m.Y)
	}
}

// writeReport saves the decode report to path, or prints it for "-".
func writeReport(state *app.State, path string, out io.Writer) error {
	r := state.Report()
	if path == "-" {
		return r.Write(out)
	}
	if err := r.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

// writePNG renders the state onto three rasters and saves their composite.
func writePNG(state *app.State, o *options) error {
	size := state.CanvasSize()
	key := render.NewRaster(int(size.Width), int(size.Height))
	overlay := render.NewRaster(int(size.Width), int(size.Height))
	bitting := render.NewRaster(int(size.Width), int(size.Height))
	key.Interpolator = render.InterpolatorByName(o.interp)
	overlay.LineWidth = 2
	bitting.LineWidth = 2

	render.Apply(state.Recompute(), render.Surfaces{Key: key, Overlay: overlay, Bitting: bitting})
	img := render.Composite(render.DefaultBackground, key.Image(), overlay.Image(), bitting.Image())

	f, err := os.Create(o.output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
