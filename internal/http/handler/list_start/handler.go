package liststart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// Handler реализует GET /start: выдаёт список с наименьшим счётчиком.
type Handler struct {
	useCase UseCase
}

func New(useCase UseCase) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) Register(router chi.Router) {
	router.Get("/start", common.WithErrorHandling(h.handle))
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	list, err := h.useCase.StartList(r.Context())
	if err != nil {
		return err
	}
	common.RespondJSON(w, http.StatusOK, list)
	return nil
}
