package listcomplete

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// idx приходит строкой ("3"), но число (3) тоже принимается.
type request struct {
	Idx json.Number `json:"idx"`
}

// Handler реализует POST /complete.
type Handler struct {
	useCase UseCase
}

func New(useCase UseCase) *Handler {
	return &Handler{useCase: useCase}
}

func (h *Handler) Register(router chi.Router) {
	router.Post("/complete", common.WithErrorHandling(h.handle))
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return common.NewBadRequestError("INVALID_BODY", "не удалось прочитать тело запроса")
	}
	if req.Idx == "" {
		return common.NewBadRequestError("VALIDATION_ERROR", "поле idx обязательно")
	}
	if err := h.useCase.CompleteList(r.Context(), req.Idx.String()); err != nil {
		return err
	}
	common.RespondOK(w)
	return nil
}
