package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"project-ledger/internal/config"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

type options struct {
	env  string
	file *config.LogConfig
}

type Option func(*options)

// WithEnv overrides the ENV variable when choosing the handler.
func WithEnv(env string) Option {
	return func(o *options) { o.env = env }
}

// WithFile tees output into a size-rotated file. An empty File is ignored.
func WithFile(cfg config.LogConfig) Option {
	return func(o *options) {
		if cfg.File != "" {
			o.file = &cfg
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{env: os.Getenv("ENV")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a new slog.Logger with trace context support
// Kubernetes/Production: JSONHandler (structured logging for log aggregation)
// Local development: TextHandler with colored output
func New(opts ...Option) *slog.Logger {
	o := resolveOptions(opts)

	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	useJSON := inK8s || o.env == "prod" || o.env == "dev"

	var out io.Writer = os.Stdout
	if o.file != nil {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   o.file.File,
			MaxSize:    o.file.MaxSizeMB,
			MaxBackups: o.file.MaxBackups,
			MaxAge:     o.file.MaxAgeDays,
			Compress:   true,
		})
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	} else {
		handler = newColorTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(newTraceContextHandler(handler))
}

func NewWithServiceContext(serviceName, version string, opts ...Option) *slog.Logger {
	l := New(opts...)
	return l.With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", resolveOptions(opts).env),
	)
}

// colorTextHandler wraps TextHandler and paints whole ERROR lines red.
// TextHandler quotes control characters inside values, so the escape codes
// go around the formatted line rather than into the message.
type colorTextHandler struct {
	handler slog.Handler
	out     io.Writer
	mu      *sync.Mutex
	buf     *bytes.Buffer
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	buf := new(bytes.Buffer)
	return &colorTextHandler{
		handler: slog.NewTextHandler(buf, opts),
		out:     w,
		mu:      new(sync.Mutex),
		buf:     buf,
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}

	line := h.buf.Bytes()
	if r.Level >= slog.LevelError {
		line = append(append([]byte(colorRed), bytes.TrimSuffix(line, []byte("\n"))...), colorReset+"\n"...)
	}
	_, err := h.out.Write(line)
	return err
}

const (
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{
		handler: h.handler.WithAttrs(attrs),
		out:     h.out,
		mu:      h.mu,
		buf:     h.buf,
	}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{
		handler: h.handler.WithGroup(name),
		out:     h.out,
		mu:      h.mu,
		buf:     h.buf,
	}
}

// traceContextHandler adds trace_id and span_id from the OTel span in ctx
type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: h}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}
