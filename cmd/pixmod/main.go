package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	"github.com/openpixmod/pixmod"
	"github.com/openpixmod/pixmod/batch"
	"github.com/openpixmod/pixmod/imop"
	"github.com/openpixmod/pixmod/palette"
	"github.com/openpixmod/pixmod/project"
	"github.com/openpixmod/pixmod/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┬─┐ ┬┌┬┐┌─┐┌┬┐
├─┘│┌┴┬┘││││ │ ││
┴  ┴┴ └─┴ ┴└─┘─┴┘

Background color key removal and layer compositing.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// envPrefix prefixes the environment variables providing flag defaults.
const envPrefix = "PIXMOD_"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", pipeName, "Destination image or directory")
	projectFile = flag.String("project", "", "Project file providing the base settings")
	saveProject = flag.String("save-project", "", "Write the effective settings to this project file")
	envFile     = flag.String("env", ".env", "File with PIXMOD_* flag defaults")
	showVersion = flag.Bool("v", false, "Print the version and exit")

	width  = flag.Int("width", 0, "Canvas width (0 uses the source size)")
	height = flag.Int("height", 0, "Canvas height (0 uses the source size)")
	hq     = flag.Bool("hq", true, "High quality resampling")
	near   = flag.Bool("nearest", false, "Nearest neighbor resampling")

	keyColors  = flag.String("key", "", "Comma separated key colors, e.g. #00ff00,#fff")
	autoKey    = flag.Int("auto-key", 0, "Number of background colors to detect from the image border")
	autoMethod = flag.String("auto-method", "dominant", "Background detection method: dominant or kmeans")
	keyMode    = flag.String("mode", "rgb", "Color key mode: rgb or hsv")
	tolerance  = flag.Int("tol", 30, "RGB distance tolerance")
	hueTol     = flag.Int("htol", 12, "HSV hue tolerance")
	satTol     = flag.Int("stol", 40, "HSV saturation tolerance")
	valTol     = flag.Int("vtol", 40, "HSV value tolerance")

	grow    = flag.Int("grow", 0, "Grow (positive) or shrink (negative) the removed area")
	feather = flag.Int("feather", 0, "Feather radius of the alpha edges")
	islands = flag.Int("islands", 0, "Remove opaque islands smaller than this many pixels")

	scale   = flag.Float64("scale", 1, "Layer scale")
	fit     = flag.Bool("fit", false, "Scale the layer to fit the canvas")
	offsetX = flag.Float64("offx", 0, "Horizontal layer offset")
	offsetY = flag.Float64("offy", 0, "Vertical layer offset")
	rotate  = flag.Int("rotate", 0, "Clockwise rotation in degrees")
	flipH   = flag.Bool("flip-h", false, "Mirror the source horizontally")
	flipV   = flag.Bool("flip-v", false, "Mirror the source vertically")
	trim    = flag.Bool("trim", false, "Crop the source to its non transparent pixels")

	opacity     = flag.Float64("opacity", 1, "Layer opacity")
	blend       = flag.String("blend", "normal", "Blend mode: normal, multiply, screen or overlay")
	brightness  = flag.Float64("brightness", 1, "Brightness factor")
	contrast    = flag.Float64("contrast", 1, "Contrast factor")
	saturation  = flag.Float64("saturation", 1, "Saturation factor")
	gamma       = flag.Float64("gamma", 1, "Gamma")
	vibrance    = flag.Float64("vibrance", 1, "Vibrance factor")
	temperature = flag.Int("temperature", 0, "Color temperature shift (-100..100)")

	suffix  = flag.String("suffix", batch.DefaultSuffix, "Output name suffix in directory mode")
	ext     = flag.String("ext", batch.DefaultExt, "Output extension in directory mode")
	workers = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
)

// spinner used to instantiate and call the progress indicator.
var spinner *utils.Spinner

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}
	if Version != "" {
		project.AppVersion = Version
	}

	set, err := loadEnvDefaults()
	if err != nil {
		log.Fatalf(utils.DecorateText("Failed to load the flag defaults: %v", utils.ErrorMessage), err)
	}

	state, err := buildState(set)
	if err != nil {
		log.Fatalf(utils.DecorateText("Failed to load the project: %v", utils.ErrorMessage), err)
	}

	if *saveProject != "" {
		if err := project.Save(*saveProject, state); err != nil {
			log.Fatalf(utils.DecorateText("Failed to save the project: %v", utils.ErrorMessage), err)
		}
		fmt.Fprintf(os.Stderr, "The project has been saved as: %s\n",
			utils.DecorateText(filepath.Base(*saveProject), utils.SuccessMessage))
		if !set["in"] {
			return
		}
	}

	op := &batch.Ops{
		Dst:          *destination,
		Suffix:       *suffix,
		Ext:          *ext,
		Workers:      *workers,
		FlipH:        *flipH,
		FlipV:        *flipV,
		Trim:         *trim,
		AutoKey:      *autoKey,
		AutoMethod:   palette.ParseMethod(*autoMethod),
		Fit:          *fit,
		SourceCanvas: *projectFile == "" && *width <= 0 && *height <= 0,
	}

	spinner = utils.NewSpinner(os.Stderr, utils.StatusLine("is removing the background...", utils.DefaultMessage), time.Millisecond*100, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		os.Exit(1)
	}()

	now := time.Now()
	if err := run(op, state); err != nil {
		log.Fatalf(
			utils.DecorateText("\nError processing the image: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
	}
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// run dispatches to the directory batch or the single image mode.
func run(op *batch.Ops, state *project.ProjectState) error {
	// Check if source path is a local image or URL.
	if utils.IsValidUrl(*source) {
		src, err := utils.DownloadImage(*source)
		if src != nil {
			defer os.Remove(src.Name())
			defer src.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		return single(op, state, src, *destination)
	}

	if *source == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("`-` should be used with a pipe for stdin")
		}
		return single(op, state, os.Stdin, *destination)
	}

	fs, err := os.Stat(*source)
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}
	if fs.IsDir() {
		return runDir(op, state)
	}

	f, err := os.Open(*source)
	if err != nil {
		return fmt.Errorf("unable to open the source file: %w", err)
	}
	defer f.Close()
	return single(op, state, f, *destination)
}

// single renders one image read from r into the destination file or pipe.
func single(op *batch.Ops, state *project.ProjectState, r io.Reader, out string) error {
	var (
		dst    io.Writer
		format imaging.Format
		err    error
	)
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		if format, err = imaging.FormatFromExtension(*ext); err != nil {
			return fmt.Errorf("%v file type not supported", *ext)
		}
		dst = os.Stdout
	} else {
		if format, err = imaging.FormatFromFilename(out); err != nil {
			return fmt.Errorf("%v file type not supported", filepath.Ext(out))
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("unable to create the destination file: %w", err)
		}
		defer f.Close()
		dst = f
	}

	spinner.Start()
	err = op.ProcessStream(state, r, dst, format)
	if err != nil {
		spinner.StopMsg = utils.StatusLine("removing the background failed ✘", utils.ErrorMessage)
		spinner.Stop()
		if out != pipeName {
			os.Remove(out)
		}
		return err
	}
	spinner.StopMsg = utils.StatusLine("the background has been removed ✔", utils.SuccessMessage)
	spinner.Stop()
	printStatus(out, nil)
	return nil
}

// runDir renders every image of the source directory concurrently.
func runDir(op *batch.Ops, state *project.ProjectState) error {
	op.Src = *source
	if *destination == pipeName {
		return errors.New("a destination directory is required in directory mode")
	}

	var processed int
	op.OnResult = func(res batch.Result) {
		processed++
		spinner.SetMessage(utils.StatusLine(
			fmt.Sprintf("processed %d images, last: %s", processed, filepath.Base(res.Src)),
			utils.DefaultMessage,
		))
	}

	spinner.Start()
	results, err := op.Run(state)
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	msgType := utils.SuccessMessage
	if failed > 0 {
		msgType = utils.ErrorMessage
	}
	spinner.StopMsg = utils.StatusLine(utils.Summary(len(results), failed), msgType)
	spinner.Stop()

	for _, res := range results {
		printStatus(res.Dst, res.Err)
	}
	return err
}

// printStatus displays the relevant information about a processed image.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			utils.DecorateText("\nError processing the image:", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		return
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// loadEnvDefaults reads the dotenv file and applies PIXMOD_* variables to
// every flag not given on the command line. It returns the names of the
// flags set either way.
func loadEnvDefaults() (map[string]bool, error) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := godotenv.Load(*envFile); err != nil {
		// The default file is optional.
		if set["env"] || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var err error
	flag.VisitAll(func(f *flag.Flag) {
		if set[f.Name] || err != nil {
			return
		}
		key := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if serr := flag.Set(f.Name, v); serr != nil {
			err = fmt.Errorf("%s: %w", key, serr)
			return
		}
		set[f.Name] = true
	})
	return set, err
}

// buildState loads the base project, when given, and applies the flags on
// top of it. Without a project every flag applies; with one only the flags
// set explicitly override it.
func buildState(set map[string]bool) (*project.ProjectState, error) {
	state := project.New()
	if *projectFile != "" {
		var err error
		if state, err = project.Load(*projectFile); err != nil {
			return nil, err
		}
	}
	use := func(name string) bool {
		return *projectFile == "" || set[name]
	}

	if use("width") && *width > 0 {
		state.OutW = *width
	}
	if use("height") && *height > 0 {
		state.OutH = *height
	}
	if use("hq") {
		state.HighQuality = *hq
	}
	if use("nearest") {
		state.NearestNeighbor = *near
	}

	l := state.ActiveLayer()
	if *projectFile == "" && !utils.IsValidUrl(*source) && *source != pipeName {
		l.SrcPath = *source
	}
	if use("key") && *keyColors != "" {
		entries, err := palette.Parse(*keyColors)
		if err != nil {
			return nil, err
		}
		l.SetEntries(entries)
	}
	if use("mode") {
		l.ColorKeyMode = pixmod.ParseKeyMode(*keyMode)
	}
	if use("tol") {
		l.Tolerance = *tolerance
	}
	if use("htol") {
		l.HSVHTol = *hueTol
	}
	if use("stol") {
		l.HSVSTol = *satTol
	}
	if use("vtol") {
		l.HSVVTol = *valTol
	}
	if use("grow") {
		l.MaskGrowShrink = *grow
	}
	if use("feather") {
		l.MaskFeatherRadius = *feather
	}
	if use("islands") {
		l.RemoveIslandsMinSize = *islands
	}
	if use("scale") {
		l.ImgScale = *scale
	}
	if use("offx") {
		l.ImgOffX = *offsetX
	}
	if use("offy") {
		l.ImgOffY = *offsetY
	}
	if use("rotate") {
		l.RotationDeg = *rotate
	}
	if use("opacity") {
		l.Opacity = *opacity
	}
	if use("blend") {
		l.BlendMode = imop.ParseBlendMode(*blend)
	}
	if use("brightness") {
		l.Brightness = *brightness
	}
	if use("contrast") {
		l.Contrast = *contrast
	}
	if use("saturation") {
		l.Saturation = *saturation
	}
	if use("gamma") {
		l.Gamma = *gamma
	}
	if use("vibrance") {
		l.Vibrance = *vibrance
	}
	if use("temperature") {
		l.Temperature = *temperature
	}
	return state, nil
}
