package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup opens logFilePath (creating parent directories as needed), builds a
// colorized stdout handler alongside a plain sequenced file handler, wires
// them into slog's default logger, and returns a cleanup func that flushes
// and closes the log file. Callers should defer the cleanup func. Both
// handlers log at Debug level when ADAPTIVEBACKUP_DEBUG is set to a
// non-empty value, Info otherwise.
func Setup(logFilePath string) (func() error, error) {
	level := slog.LevelInfo
	if os.Getenv("ADAPTIVEBACKUP_DEBUG") != "" {
		level = slog.LevelDebug
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})

	interceptor := NewLineInterceptor(file)
	fileHandler := slog.NewTextHandler(interceptor, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	slog.SetDefault(slog.New(NewMultiHandler(stdoutHandler, fileHandler)))

	return func() error {
		if err := interceptor.Close(); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}, nil
}
