package logging

import "context"

func update(ctx context.Context, fn func(*logCtx)) context.Context {
	c, _ := ctx.Value(key).(logCtx)
	fn(&c)
	return context.WithValue(ctx, key, c)
}

// WithLogRequestID добавляет request ID в контекст.
func WithLogRequestID(ctx context.Context, requestID string) context.Context {
	return update(ctx, func(c *logCtx) { c.RequestID = requestID })
}

// WithLogRequestPath добавляет путь запроса в контекст.
func WithLogRequestPath(ctx context.Context, path string) context.Context {
	return update(ctx, func(c *logCtx) { c.Path = path })
}

// WithLogRequestMethod добавляет метод запроса в контекст.
func WithLogRequestMethod(ctx context.Context, method string) context.Context {
	return update(ctx, func(c *logCtx) { c.Method = method })
}

// WithLogRequestStatus добавляет статус ответа в контекст.
func WithLogRequestStatus(ctx context.Context, status int) context.Context {
	return update(ctx, func(c *logCtx) { c.Status = status })
}

// WithLogRequestDuration добавляет длительность запроса в контекст.
func WithLogRequestDuration(ctx context.Context, duration string) context.Context {
	return update(ctx, func(c *logCtx) { c.RequestDuration = duration })
}

// WithLogListIdx добавляет индекс списка стимулов в контекст.
func WithLogListIdx(ctx context.Context, idx string) context.Context {
	return update(ctx, func(c *logCtx) { c.ListIdx = idx })
}

// WithLogFilename добавляет имя файла с ответами участника в контекст.
func WithLogFilename(ctx context.Context, filename string) context.Context {
	return update(ctx, func(c *logCtx) { c.Filename = filename })
}

// WithLogParticipant добавляет идентификатор участника в контекст.
func WithLogParticipant(ctx context.Context, participant string) context.Context {
	return update(ctx, func(c *logCtx) { c.Participant = participant })
}

// WithLogEndpoint добавляет адрес отправки данных в контекст.
func WithLogEndpoint(ctx context.Context, endpoint string) context.Context {
	return update(ctx, func(c *logCtx) { c.Endpoint = endpoint })
}
