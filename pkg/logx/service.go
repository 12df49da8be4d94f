package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultLogFile = "./kratzbaum.log"

type Config struct {
	Level   string
	Console bool
	// JSON writes console lines as JSON instead of the pretty format.
	JSON bool
	File FileConfig
	// DebugRatePerSec caps debug and trace lines per second. 0 disables.
	DebugRatePerSec int
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// Service owns the log sinks and swaps them on Apply. Loggers obtained
// from it pick up the new sinks without being rebuilt.
type Service struct {
	mu   sync.Mutex
	file *os.File
	path string

	root atomic.Pointer[zerolog.Logger]
}

// New applies cfg and returns the service with its root logger.
func New(cfg Config) (*Service, Logger) {
	s := &Service{}
	s.Apply(cfg)
	return s, s.Logger()
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

// Apply rebuilds the sinks. The log file is reopened only when its path
// changes. File errors are reported on stderr and logging continues on the
// remaining sinks.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sinks []io.Writer
	if cfg.Console {
		if cfg.JSON {
			sinks = append(sinks, os.Stdout)
		} else {
			sinks = append(sinks, consoleWriter(os.Stdout))
		}
	}
	if f := s.openFile(cfg.File); f != nil {
		sinks = append(sinks, zerolog.SyncWriter(f))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, consoleWriter(os.Stdout))
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().Logger()
	if cfg.DebugRatePerSec > 0 {
		zl = zl.Sample(newDebugSampler(cfg.DebugRatePerSec))
	}
	s.root.Store(&zl)
}

func (s *Service) openFile(fc FileConfig) *os.File {
	path := ""
	if fc.Enabled {
		path = strings.TrimSpace(fc.Path)
		if path == "" {
			path = defaultLogFile
		}
	}
	if path == s.path {
		return s.file
	}
	s.closeFile()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "logx: create log dir for %s: %v\n", path, err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logx: open %s: %v\n", path, err)
		return nil
	}
	s.file, s.path = f, path
	return f
}

func (s *Service) closeFile() error {
	f := s.file
	s.file, s.path = nil, ""
	if f == nil {
		return nil
	}
	return f.Close()
}

// Close releases the log file. Loggers keep writing to the other sinks.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeFile()
}

// debugSampler passes info and above and rate-limits debug and trace.
type debugSampler struct{ lim *rate.Limiter }

func newDebugSampler(perSec int) *debugSampler {
	return &debugSampler{lim: rate.NewLimiter(rate.Limit(perSec), perSec)}
}

func (d *debugSampler) Sample(lvl zerolog.Level) bool {
	return lvl > zerolog.DebugLevel || d.lim.Allow()
}
