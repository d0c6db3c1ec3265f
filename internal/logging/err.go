package logging

import (
	"context"
	"errors"
	"reflect"
)

// errorWithLogCtx оборачивает ошибку с контекстом логирования.
type errorWithLogCtx struct {
	next error
	ctx  logCtx
}

// Error возвращает строковое представление ошибки.
func (e *errorWithLogCtx) Error() string {
	return e.next.Error()
}

// Unwrap возвращает исходную ошибку.
func (e *errorWithLogCtx) Unwrap() error {
	return e.next
}

// WrapError прикрепляет к ошибке поля логирования из ctx. nil остаётся nil.
func WrapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	c, _ := ctx.Value(key).(logCtx)
	return &errorWithLogCtx{
		next: err,
		ctx:  c,
	}
}

// ErrorCtx переносит поля логирования из ошибки в ctx.
// Поля, уже заданные в ctx, не перезаписываются.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if !errors.As(err, &e) {
		return ctx
	}
	current, _ := ctx.Value(key).(logCtx)
	return context.WithValue(ctx, key, fillEmpty(current, e.ctx))
}

// fillEmpty копирует в dst непустые поля src, которые пусты в dst.
func fillEmpty(dst, src logCtx) logCtx {
	d := reflect.ValueOf(&dst).Elem()
	s := reflect.ValueOf(src)
	for i := 0; i < d.NumField(); i++ {
		if d.Field(i).IsZero() && !s.Field(i).IsZero() {
			d.Field(i).Set(s.Field(i))
		}
	}
	return dst
}
