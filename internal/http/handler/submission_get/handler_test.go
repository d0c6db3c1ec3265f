package submissionget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type stubUseCase struct {
	requested string
}

func (s *stubUseCase) GetSubmission(_ context.Context, filename string) (domain.Submission, error) {
	s.requested = filename
	if filename == "missing.json" {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return domain.Submission{Filename: filename, Data: json.RawMessage(`[{"trial":1}]`)}, nil
}

func newRouter(useCase UseCase) chi.Router {
	router := chi.NewRouter()
	router.Route("/submissions", func(r chi.Router) {
		New(useCase).Register(r)
	})
	return router
}

func TestHandler_ReturnsSubmission(t *testing.T) {
	t.Parallel()

	useCase := &stubUseCase{}
	rec := httptest.NewRecorder()
	newRouter(useCase).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submissions/subject42.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "subject42.json", useCase.requested)
	var body struct {
		Filename string          `json:"filename"`
		Filedata json.RawMessage `json:"filedata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "subject42.json", body.Filename)
	require.JSONEq(t, `[{"trial":1}]`, string(body.Filedata))
}

func TestHandler_NotFound(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(&stubUseCase{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submissions/missing.json", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
