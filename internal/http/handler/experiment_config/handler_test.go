package experimentconfig

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type stubUseCase struct{}

func (stubUseCase) ExperimentSettings(saveURL string) domain.ExperimentSettings {
	return domain.ExperimentSettings{RoutingMode: "route", SaveURL: saveURL, TrialsPerBlock: 85}
}

func TestHandler_PublishesSaveURL(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Route("/experiment", func(r chi.Router) {
		New(stubUseCase{}, "/save").Register(r)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/experiment/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var settings domain.ExperimentSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	require.Equal(t, "/save", settings.SaveURL)
	require.Equal(t, "route", settings.RoutingMode)
	require.Equal(t, 85, settings.TrialsPerBlock)
}
