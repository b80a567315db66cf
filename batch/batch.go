// Package batch renders a fixed project configuration over every image of
// a directory, writing one output file per input.
package batch

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/openpixmod/pixmod"
	"github.com/openpixmod/pixmod/palette"
	"github.com/openpixmod/pixmod/project"
	_ "golang.org/x/image/webp"
)

// MaxWorkers sets the maximum number of concurrently running workers.
const MaxWorkers = 20

const (
	DefaultSuffix = "_opm"
	DefaultExt    = ".png"
)

// Extensions lists the supported input file extensions.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tif", ".tiff"}

// Ops configures a batch run.
type Ops struct {
	Src, Dst    string
	Suffix, Ext string
	Workers     int

	// Per image preparation, applied to the source before rendering.
	FlipH, FlipV bool
	// Trim crops the source to its non transparent pixels.
	Trim bool
	// AutoKey appends up to AutoKey suggested background colors of each
	// image to the active layer palette.
	AutoKey    int
	AutoMethod palette.Method
	// Fit scales each image to fit the canvas.
	Fit bool
	// SourceCanvas sizes the canvas after each source image.
	SourceCanvas bool

	// OnResult, when set, is called once per processed image from the
	// collecting goroutine.
	OnResult func(Result)
}

// Result holds the outcome of processing a single image.
type Result struct {
	Src, Dst string
	Err      error
}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ListImages returns the supported image files directly inside dir, sorted
// by name. Subdirectories are not visited.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read the source directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// OutputPath derives the destination file of src: its base name without
// extension, followed by suffix and ext, inside dstDir.
func OutputPath(dstDir, src, suffix, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dstDir, stem+suffix+ext)
}

// RenderImage composites src as the active layer of state onto the
// project canvas, restricted by the shared selection rectangle.
func RenderImage(state *project.ProjectState, src *image.NRGBA) (*image.NRGBA, error) {
	layer, err := state.ActiveLayer().Layer(src, state.Selection(nil))
	if err != nil {
		return nil, err
	}
	layer.Hidden = false
	return pixmod.CompositeLayer(layer, state.CanvasSize(), state.RenderOptions())
}

// Decode reads an image in any supported format.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the source image: %w", err)
	}
	return pixmod.ToNRGBA(img), nil
}

// Render prepares src according to the options and composites it with
// state. The state itself is never modified.
func (op *Ops) Render(state *project.ProjectState, src *image.NRGBA) (*image.NRGBA, error) {
	var err error
	if op.FlipH {
		if src, err = pixmod.FlipHorizontal(src); err != nil {
			return nil, err
		}
	}
	if op.FlipV {
		if src, err = pixmod.FlipVertical(src); err != nil {
			return nil, err
		}
	}
	if op.Trim {
		if src, _, err = pixmod.TrimTransparent(src); err != nil {
			return nil, err
		}
	}

	if op.AutoKey > 0 || op.Fit || op.SourceCanvas {
		state = state.Clone()
		size := src.Bounds().Size()
		if op.SourceCanvas {
			state.OutW, state.OutH = size.X, size.Y
		}
		layer := state.ActiveLayer()
		if op.AutoKey > 0 {
			for _, c := range palette.Suggest(src, op.AutoKey, op.AutoMethod) {
				layer.Palette = append(layer.Palette, project.FromEntry(pixmod.PaletteEntry{Color: c, Enabled: true}))
			}
		}
		if op.Fit {
			layer.ImgScale = pixmod.FitScale(size, state.CanvasSize())
		}
	}
	return RenderImage(state, src)
}

// ProcessStream decodes an image from r, renders it with state and encodes
// the result to w in the given format.
func (op *Ops) ProcessStream(state *project.ProjectState, r io.Reader, w io.Writer, format imaging.Format) error {
	src, err := Decode(r)
	if err != nil {
		return err
	}
	out, err := op.Render(state, src)
	if err != nil {
		return err
	}
	return imaging.Encode(w, out, format)
}

// Process renders the image file in into the file out. The output format
// follows the extension of out. A partially written output is removed.
func (op *Ops) Process(state *project.ProjectState, in, out string) error {
	format, err := imaging.FormatFromFilename(out)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Ext(out), err)
	}

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("unable to open the source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}

	err = op.ProcessStream(state, src, dst, format)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return err
	}
	return nil
}

// Run processes every supported image of op.Src concurrently and writes
// the results into op.Dst, creating it when missing. It returns the
// per-image results sorted by source path; the error joins every failure.
func (op *Ops) Run(state *project.ProjectState) ([]Result, error) {
	if op.Suffix == "" {
		op.Suffix = DefaultSuffix
	}
	if op.Ext == "" {
		op.Ext = DefaultExt
	}
	if _, err := imaging.FormatFromExtension(strings.TrimPrefix(op.Ext, ".")); err != nil {
		return nil, fmt.Errorf("%v file type not supported: %w", op.Ext, err)
	}
	if err := os.MkdirAll(op.Dst, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create the destination directory: %w", err)
	}

	// Normalize the layers before the workers share the state.
	state.ActiveLayer()

	// Limit the concurrently running workers to MaxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > MaxWorkers {
		workers = runtime.NumCPU()
	}

	ch := make(chan Result)
	done := make(chan struct{})
	defer close(done)

	paths, errc := walkDir(done, op.Src)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(state, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var (
		results []Result
		errs    []error
	)
	for res := range ch {
		if op.OnResult != nil {
			op.OnResult(res)
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(res.Src), res.Err))
		}
		results = append(results, res)
	}
	if err := <-errc; err != nil {
		errs = append(errs, err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Src < results[j].Src })
	return results, errors.Join(errs...)
}

// consumer renders every path received until the channel is drained or
// the run is cancelled.
func (op *Ops) consumer(
	state *project.ProjectState,
	res chan<- Result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		dst := OutputPath(op.Dst, src, op.Suffix, op.Ext)
		err := op.Process(state, src, dst)

		select {
		case <-done:
			return
		case res <- Result{Src: src, Dst: dst, Err: err}:
		}
	}
}

// walkDir starts a new goroutine listing the images of src and sending
// each path to the returned channel. It stops early when done is closed.
func walkDir(done <-chan struct{}, src string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(pathChan)

		paths, err := ListImages(src)
		if err != nil {
			errChan <- err
			return
		}
		for _, p := range paths {
			select {
			case <-done:
				errChan <- errors.New("directory walk cancelled")
				return
			case pathChan <- p:
			}
		}
		errChan <- nil
	}()
	return pathChan, errChan
}
