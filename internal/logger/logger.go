package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects where each logging channel goes. Records below WARN belong
// to the informational channel, WARN and above to the error channel. Stdout
// is never a sink: it carries protocol traffic.
type Config struct {
	Level      slog.Level
	Format     string
	Output     io.Writer
	InfoOutput io.Writer
	AddSource  bool
}

func DefaultConfig() Config {
	return Config{
		Level:      slog.LevelInfo,
		Format:     "text",
		Output:     os.Stderr,
		InfoOutput: io.Discard,
		AddSource:  false,
	}
}

func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	return slog.New(&channelHandler{
		info: newSink(cfg.InfoOutput, cfg.Format, opts),
		errs: newSink(cfg.Output, cfg.Format, opts),
	})
}

func Init(cfg Config) {
	slog.SetDefault(New(cfg))
}

func newSink(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if w == nil || w == io.Discard {
		return slog.DiscardHandler
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type channelHandler struct {
	info slog.Handler
	errs slog.Handler
}

func (h *channelHandler) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelWarn {
		return h.errs
	}
	return h.info
}

func (h *channelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.pick(level).Enabled(ctx, level)
}

func (h *channelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *channelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &channelHandler{
		info: h.info.WithAttrs(attrs),
		errs: h.errs.WithAttrs(attrs),
	}
}

func (h *channelHandler) WithGroup(name string) slog.Handler {
	return &channelHandler{
		info: h.info.WithGroup(name),
		errs: h.errs.WithGroup(name),
	}
}

// ParseLevel maps a level name to a slog level. ok is false for unknown names.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func ForComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
