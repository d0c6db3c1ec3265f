package submissionsave

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
)

// ScriptPath - путь скрипта по умолчанию для режима script.
const ScriptPath = "/static/write_data.php"

// maxBodyBytes ограничивает размер одного файла ответов.
const maxBodyBytes = 10 << 20

type request struct {
	Filename string          `json:"filename"`
	Filedata json.RawMessage `json:"filedata"`
}

// Handler принимает ответы участника на маршруте сервера и на пути скрипта.
type Handler struct {
	useCase    UseCase
	route      string
	scriptPath string
}

// New создаёт обработчик. Пустые route и scriptPath заменяются на /save и ScriptPath.
func New(useCase UseCase, route, scriptPath string) *Handler {
	if route == "" {
		route = "/save"
	}
	if scriptPath == "" {
		scriptPath = ScriptPath
	}
	return &Handler{useCase: useCase, route: route, scriptPath: scriptPath}
}

// Route возвращает маршрут сервера, на котором принимаются данные.
func (h *Handler) Route() string {
	return h.route
}

// ScriptRoute возвращает путь, смонтированный для режима script.
func (h *Handler) ScriptRoute() string {
	return h.scriptPath
}

func (h *Handler) Register(router chi.Router) {
	router.Post(h.route, common.WithErrorHandling(h.handle))
	if h.scriptPath != h.route {
		router.Post(h.scriptPath, common.WithErrorHandling(h.handle))
	}
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) error {
	var req request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return common.NewBadRequestError("INVALID_BODY", "не удалось прочитать тело запроса")
	}
	if req.Filename == "" {
		return common.NewBadRequestError("VALIDATION_ERROR", "поле filename обязательно")
	}
	saved, err := h.useCase.SaveSubmission(r.Context(), req.Filename, req.Filedata)
	if err != nil {
		return err
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"filename": saved.Filename})
	return nil
}
