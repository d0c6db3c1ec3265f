// Package submit отправляет собранные ответы участника на сервер хранения.
//
// Отправка работает по принципу "отправил и забыл": не более одного запроса на вызов,
// без повторов и подтверждений. Ошибки только логируются и учитываются в метриках.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ewok-core/ewok-paper/internal/logging"
	"github.com/ewok-core/ewok-paper/internal/metrics"
)

// Record - тело запроса отправки.
type Record struct {
	Filename string `json:"filename"`
	Filedata any    `json:"filedata"`
}

// Doer выполняет HTTP-запрос. Подходит *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Submitter отправляет записи на выбранный Endpoint.
type Submitter struct {
	endpoint Endpoint
	client   Doer
	inflight sync.WaitGroup
}

// Option настраивает Submitter.
type Option func(*Submitter)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(client Doer) Option {
	return func(s *Submitter) {
		s.client = client
	}
}

// New создаёт Submitter. По умолчанию используется http.Client без таймаута.
func New(endpoint Endpoint, opts ...Option) *Submitter {
	s := &Submitter{
		endpoint: endpoint,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint возвращает выбранную стратегию отправки.
func (s *Submitter) Endpoint() Endpoint {
	return s.endpoint
}

// NewRequest собирает POST-запрос с JSON-телом {"filename": name, "filedata": data}.
func (s *Submitter) NewRequest(ctx context.Context, name string, data any) (*http.Request, error) {
	body, err := json.Marshal(Record{Filename: name, Filedata: data})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.Target(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Submit отправляет данные в фоне и сразу возвращает управление.
// Данные сериализуются до возврата, поэтому вызывающий может менять data после вызова.
// Отмена ctx не прерывает отправку.
func (s *Submitter) Submit(ctx context.Context, name string, data any) {
	ctx = context.WithoutCancel(ctx)
	ctx = logging.WithLogFilename(ctx, name)
	ctx = logging.WithLogEndpoint(ctx, s.endpoint.Target())

	req, err := s.NewRequest(ctx, name, data)
	if err != nil {
		slog.WarnContext(ctx, "submission dropped", "error", err)
		metrics.IncSubmissionsSent(metrics.SubmitResultEncode)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.send(ctx, req)
	}()
}

// Wait блокируется до завершения всех начатых отправок.
func (s *Submitter) Wait() {
	s.inflight.Wait()
}

func (s *Submitter) send(ctx context.Context, req *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "submission panicked", "error", p)
			metrics.IncSubmissionsSent(metrics.SubmitResultTransport)
		}
	}()

	resp, err := s.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "submission failed", "error", err)
		metrics.IncSubmissionsSent(metrics.SubmitResultTransport)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		slog.WarnContext(ctx, "submission rejected by endpoint", "status", resp.StatusCode)
		metrics.IncSubmissionsSent(metrics.SubmitResultHTTPStatus)
		return
	}
	slog.DebugContext(ctx, "submission sent", "status", resp.StatusCode)
	metrics.IncSubmissionsSent(metrics.SubmitResultSent)
}
