package text

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"

	"github.com/gogpu/termrender/internal/logging"
)

// SystemCollection serves faces installed on the host. The font index is
// built by go-text's fontscan on first use and cached under CacheDir.
// Matched files are parsed lazily and kept for later lookups.
type SystemCollection struct {
	// CacheDir is where fontscan stores its index. Empty selects the
	// user cache directory.
	CacheDir string

	once    sync.Once
	scanErr error
	fm      *fontscan.FontMap

	loaded *MemoryCollection
	seen   map[fontscan.Location]bool
}

// NewSystemCollection returns a collection over the host's installed fonts.
func NewSystemCollection(cacheDir string) *SystemCollection {
	return &SystemCollection{
		CacheDir: cacheDir,
		loaded:   NewMemoryCollection(),
		seen:     make(map[fontscan.Location]bool),
	}
}

// scanLogger adapts fontscan's Printf logging to slog.
type scanLogger struct{}

func (scanLogger) Printf(format string, args ...interface{}) {
	logging.Logger().Debug(fmt.Sprintf("text: fontscan: "+format, args...))
}

func (s *SystemCollection) init() error {
	s.once.Do(func() {
		s.fm = fontscan.NewFontMap(scanLogger{})
		s.scanErr = s.fm.UseSystemFonts(s.CacheDir)
		if s.scanErr != nil {
			logging.Logger().Warn("text: system font scan failed", "err", s.scanErr)
		}
	})
	return s.scanErr
}

// Match implements Collection.
func (s *SystemCollection) Match(family string, aspect font.Aspect) (*Typeface, bool) {
	if err := s.init(); err != nil {
		return nil, false
	}
	for _, loc := range s.fm.FindSystemFonts(family) {
		if s.seen[loc] {
			continue
		}
		s.seen[loc] = true
		data, err := os.ReadFile(loc.File)
		if err != nil {
			logging.Logger().Warn("text: read system font", "file", loc.File, "err", err)
			continue
		}
		tf, err := LoadTypeface(data, int(loc.Index))
		if err != nil {
			logging.Logger().Warn("text: parse system font", "file", loc.File, "err", err)
			continue
		}
		s.loaded.AddAs(family, tf)
	}
	return s.loaded.Match(family, aspect)
}
