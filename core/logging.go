package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const DefaultLogPath = "steamshelf.log"

func DefaultLogLocation() (string, error) {
	return xdg.CacheFile(filepath.Join(APP_NAME, DefaultLogPath))
}

func InitLoggingWithDefaultPath(verbose bool, writers ...io.Writer) error {
	path, err := DefaultLogLocation()
	if err != nil {
		return err
	}

	return InitLoggingWithPath(path, verbose, writers...)
}

// InitLoggingWithPath points the global logger at a rotating file at path
// and any extra writers, e.g. a console writer in CLI mode.
func InitLoggingWithPath(path string, verbose bool, writers ...io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   path,
		MaxSize:    1,
		MaxBackups: 2,
	}}
	logWriters = append(logWriters, writers...)

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(io.MultiWriter(logWriters...)).
		With().Timestamp().Logger()

	log.Debug().Str("path", path).Msg("logging initialized")
	return nil
}

// ConsoleWriter is the human readable stderr writer used by the CLI.
func ConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}
