package experimentconfig

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// Handler реализует GET /experiment/config.
// saveURL вычисляется при старте из выбранного режима отправки.
type Handler struct {
	useCase UseCase
	saveURL string
}

func New(useCase UseCase, saveURL string) *Handler {
	return &Handler{useCase: useCase, saveURL: saveURL}
}

func (h *Handler) Register(router chi.Router) {
	router.Get("/config", h.handle)
}

func (h *Handler) handle(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.useCase.ExperimentSettings(h.saveURL))
}
