package submissionget

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// Handler реализует GET /submissions/{filename}.
type Handler struct {
	useCase UseCase
}

func New(useCase UseCase) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) Register(router chi.Router) {
	router.Get("/{filename}", common.WithErrorHandling(h.handle))
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	sub, err := h.useCase.GetSubmission(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		return err
	}
	common.RespondJSON(w, http.StatusOK, sub)
	return nil
}
