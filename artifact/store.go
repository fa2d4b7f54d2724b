// Package artifact lays out a run's output directory and writes the
// screenshots and debug dumps produced while processing targets.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/go-rod/rod/lib/utils"
)

// Layout of a run directory.
const (
	RunDirPrefix = "coleta_"
	RunDirLayout = "2006_01_02_150405"
	PrintsDir    = "prints"
	DebugDir     = "debug"
	LogFile      = "run.log"
)

// Store writes artifacts under one run directory.
type Store struct {
	dir  string
	conv *converter.Converter
	log  *slog.Logger
}

// NewRunDir creates <base>/coleta_<YYYY_MM_DD_HHMMSS> with its prints
// subdirectory and returns its path.
func NewRunDir(base string, started time.Time) (string, error) {
	dir := filepath.Join(base, RunDirPrefix+started.Format(RunDirLayout))
	if err := os.MkdirAll(filepath.Join(dir, PrintsDir), 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, conv: newMarkdownConverter(), log: log}
}

// Dir is the run directory.
func (s *Store) Dir() string { return s.dir }

// SaveScreenshot writes png as prints/<name>.
func (s *Store) SaveScreenshot(name string, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("screenshot %s is empty", name)
	}
	path := filepath.Join(s.dir, PrintsDir, filepath.Base(name))
	if err := utils.OutputFile(path, png); err != nil {
		return "", fmt.Errorf("write screenshot %s: %w", name, err)
	}
	return path, nil
}

// SaveMarkup writes the raw document as debug/<seq>.html and a Markdown
// rendering beside it. The Markdown is best-effort; the HTML is not.
func (s *Store) SaveMarkup(sequenceID, rawHTML string) (string, error) {
	base := filepath.Join(s.dir, DebugDir, filepath.Base(sequenceID))
	path := base + ".html"
	if err := utils.OutputFile(path, rawHTML); err != nil {
		return "", fmt.Errorf("write markup %s: %w", sequenceID, err)
	}

	md, err := s.conv.ConvertString(rawHTML)
	if err != nil {
		s.log.Debug("markdown rendering of debug dump failed", "seq", sequenceID, "error", err)
		return path, nil
	}
	if err := utils.OutputFile(base+".md", md); err != nil {
		s.log.Debug("writing markdown debug dump failed", "seq", sequenceID, "error", err)
	}
	return path, nil
}
