// Command termdemo renders a sample terminal screen to a PNG file.
//
// The screen goes through the full frame cycle of the renderer: dirty
// tracking, background and text painting, and presentation. With
// -software (the default) no window or GPU is needed.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/termrender"
	"github.com/gogpu/termrender/text"
)

var sample = []string{
	"$ ls -l",
	"total 24",
	"-rw-r--r--  1 user  staff  1041 Oct 16 09:12 README.md",
	"drwxr-xr-x  4 user  staff   128 Oct 16 09:12 cmd",
	"-rw-r--r--  1 user  staff   412 Oct 16 09:14 go.mod",
	"$ echo 'wide: 日本語 ok'",
	"wide: 日本語 ok",
	"$ ",
}

func main() {
	var (
		profilePath = flag.String("profile", "", "TOML appearance profile")
		output      = flag.String("output", "demo.png", "output file")
		cols        = flag.Int("cols", 80, "grid columns")
		rows        = flag.Int("rows", 24, "grid rows")
		software    = flag.Bool("software", true, "use the software backend")
		verbose     = flag.Bool("verbose", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s := termrender.DefaultSettings()
	s.SoftwareRendering = *software
	if *profilePath != "" {
		p, unknown, err := loadProfile(*profilePath)
		if err != nil {
			log.Fatal(err)
		}
		for _, k := range unknown {
			logger.Warn("termdemo: unknown profile key", "key", k)
		}
		if err := p.apply(&s); err != nil {
			log.Fatalf("profile %s: %v", *profilePath, err)
		}
	}

	img, err := renderScreen(s, *cols, *rows, logger)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := writePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, img.Bounds().Dx(), img.Bounds().Dy())
}

// renderScreen draws the sample screen on a cols x rows grid and returns the
// presented frame.
func renderScreen(s termrender.Settings, cols, rows int, logger *slog.Logger) (*image.RGBA, error) {
	e, err := termrender.New(s, termrender.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer e.Close()

	if err := e.Enable(); err != nil {
		return nil, err
	}
	cell := e.CellSize()
	pad := s.Padding
	e.SetTargetSize(cols*cell.X+2*pad.X, rows*cell.Y+2*pad.Y)

	if err := e.StartPaint(); err != nil {
		return nil, err
	}
	if err := paint(e, s, rows); err != nil {
		_ = e.EndPaint()
		return nil, err
	}
	if err := e.EndPaint(); err != nil {
		return nil, err
	}
	if err := e.Present(); err != nil {
		return nil, err
	}

	img := e.Snapshot()
	if img == nil {
		return nil, fmt.Errorf("no frame presented")
	}
	return img, nil
}

func paint(e *termrender.Engine, s termrender.Settings, rows int) error {
	if err := e.PaintBackground(); err != nil {
		return err
	}

	prompt := color.NRGBA{R: 0x6a, G: 0xc4, B: 0x6a, A: 0xff}
	for y, line := range sample {
		if y >= rows {
			break
		}
		fg := s.DefaultForeground
		if len(line) > 0 && line[0] == '$' {
			fg = prompt
		}
		e.UpdateDrawingBrushes(fg, s.DefaultBackground)
		if err := e.PaintBufferLine(text.SplitCells(line), image.Pt(0, y)); err != nil {
			return err
		}
	}

	// Selection over the file name of the README line.
	if err := e.PaintSelection(image.Rect(44, 2, 53, 3)); err != nil {
		return err
	}
	// Underline the command of the first prompt and box the last cell.
	if err := e.PaintGridLines(termrender.GridUnderline, s.DefaultForeground, 5, image.Pt(2, 0)); err != nil {
		return err
	}
	box := termrender.GridTop | termrender.GridLeft | termrender.GridBottom | termrender.GridRight
	if err := e.PaintGridLines(box, prompt, 1, image.Pt(2, len(sample)-1)); err != nil {
		return err
	}
	return e.PaintCursor()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
