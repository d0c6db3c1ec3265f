package listreset

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// Handler реализует GET и POST /reset.
type Handler struct {
	useCase UseCase
}

func New(useCase UseCase) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) Register(router chi.Router) {
	router.Get("/reset", common.WithErrorHandling(h.handle))
	router.Post("/reset", common.WithErrorHandling(h.handle))
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	if err := h.useCase.ResetCounts(r.Context()); err != nil {
		return err
	}
	common.RespondOK(w)
	return nil
}
