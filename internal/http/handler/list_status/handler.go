package liststatus

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// Handler реализует GET /status.
type Handler struct {
	useCase UseCase
}

func New(useCase UseCase) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) Register(router chi.Router) {
	router.Get("/status", common.WithErrorHandling(h.handle))
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	counts, err := h.useCase.Status(r.Context())
	if err != nil {
		return err
	}
	common.RespondJSON(w, http.StatusOK, counts)
	return nil
}
