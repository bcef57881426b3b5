package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs a tint handler on stderr as the default slog logger.
// Colors are only enabled when stderr is a terminal.
func Setup(level string) *slog.Logger {
	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	logger := New(colorable.NewColorable(os.Stderr), level, noColor)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, level string, noColor bool) *slog.Logger {
	lv := &slog.LevelVar{}
	lv.Set(ParseLevel(level))

	// Skip timestamps under systemd, the journal adds its own
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lv,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			switch v := a.Value.Any().(type) {
			case string:
				if v == "" {
					return slog.Attr{}
				}
			case time.Duration:
				if v == 0 {
					return slog.Attr{}
				}
			case nil:
				return slog.Attr{}
			}
			return a
		},
	}))
}
