package logging

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"runtime"
)

type keyType int

const key = keyType(0)

// logCtx поля, которые обработчик добавляет к каждой записи.
// Имя атрибута берётся из тега log.
type logCtx struct {
	RequestID       string `log:"request_id"`
	Status          int    `log:"status"`
	RequestDuration string `log:"duration"`
	Method          string `log:"method"`
	Path            string `log:"path"`
	ListIdx         string `log:"list_idx"`
	Filename        string `log:"filename"`
	Participant     string `log:"participant"`
	Endpoint        string `log:"endpoint"`
}

// LoggerImpl slog.Handler, дописывающий поля из контекста и место вызова.
type LoggerImpl struct {
	next slog.Handler
}

func NewLoggerImpl(next slog.Handler) *LoggerImpl {
	return &LoggerImpl{next: next}
}

func (h *LoggerImpl) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle добавляет непустые поля logCtx и source вида pkg/file.go:line.
func (h *LoggerImpl) Handle(ctx context.Context, rec slog.Record) error {
	if c, ok := ctx.Value(key).(logCtx); ok {
		rec.AddAttrs(contextAttrs(c)...)
	}

	if rec.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{rec.PC}).Next()
		source := filepath.Join(filepath.Base(filepath.Dir(f.File)), filepath.Base(f.File))
		rec.Add("source", fmt.Sprintf("%s:%d", source, f.Line))
	}

	return h.next.Handle(ctx, rec)
}

func (h *LoggerImpl) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LoggerImpl{next: h.next.WithAttrs(attrs)}
}

func (h *LoggerImpl) WithGroup(name string) slog.Handler {
	return &LoggerImpl{next: h.next.WithGroup(name)}
}

func contextAttrs(c logCtx) []slog.Attr {
	v := reflect.ValueOf(c)
	t := v.Type()
	attrs := make([]slog.Attr, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.IsZero() {
			continue
		}
		attrs = append(attrs, slog.Any(t.Field(i).Tag.Get("log"), field.Interface()))
	}
	return attrs
}
