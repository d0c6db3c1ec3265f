package router

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/http/handler/common"
	experimentconfig "github.com/ewok-core/ewok-paper/internal/http/handler/experiment_config"
	listcomplete "github.com/ewok-core/ewok-paper/internal/http/handler/list_complete"
	listreset "github.com/ewok-core/ewok-paper/internal/http/handler/list_reset"
	liststart "github.com/ewok-core/ewok-paper/internal/http/handler/list_start"
	liststatus "github.com/ewok-core/ewok-paper/internal/http/handler/list_status"
	submissionget "github.com/ewok-core/ewok-paper/internal/http/handler/submission_get"
	submissionsave "github.com/ewok-core/ewok-paper/internal/http/handler/submission_save"
	"github.com/ewok-core/ewok-paper/internal/http/middleware"
	"github.com/ewok-core/ewok-paper/internal/http/swagger"
	"github.com/ewok-core/ewok-paper/internal/service"
)

// Handler агрегирует HTTP-эндпоинты.
type Handler struct {
	service     *service.Service
	cfg         config.Config
	swaggerSpec []byte
}

func New(service *service.Service, cfg config.Config, spec []byte) *Handler {
	return &Handler{service: service, cfg: cfg, swaggerSpec: spec}
}

// Router возвращает готовый chi.Router со всеми зарегистрированными маршрутами и middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	// Middleware применяются в порядке объявления
	r.Use(chimw.RequestID)                                      // Добавляет уникальный ID каждому запросу
	r.Use(chimw.RealIP)                                         // Определяет реальный IP клиента
	r.Use(middleware.PanicMiddleware)                           // Перехватывает паники
	r.Use(middleware.CORSMiddleware(h.cfg.HTTP.AllowedOrigins)) // Страница эксперимента может жить на другом хосте
	r.Use(middleware.LoggerMiddleware)                          // Логирует все запросы
	r.Use(middleware.MetricsMiddleware)                         // Собирает метрики Prometheus
	swagger.RegisterRoutes(r, h.swaggerSpec)

	// Проверка соединения со страницы эксперимента
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		common.RespondOK(w)
	})

	// Health check эндпоинт для проверки доступности сервиса
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.HealthCheck(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", "error", err)
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics endpoint для сбора метрик
	r.Handle("/metrics", promhttp.Handler())

	h.registerListRoutes(r)
	h.registerSubmissionRoutes(r)

	return r
}

func (h *Handler) registerListRoutes(r chi.Router) {
	liststart.New(h.service).Register(r)
	listcomplete.New(h.service).Register(r)
	liststatus.New(h.service).Register(r)
	listreset.New(h.service).Register(r)
}

func (h *Handler) registerSubmissionRoutes(r chi.Router) {
	save := submissionsave.New(h.service, h.cfg.Submit.Route, ScriptRoute(h.cfg.Submit))
	save.Register(r)
	r.Route("/submissions", func(router chi.Router) {
		submissionget.New(h.service).Register(router)
	})
	r.Route("/experiment", func(router chi.Router) {
		experimentconfig.New(h.service, SaveURL(h.cfg.Submit, save.Route())).Register(router)
	})
}

// ScriptRoute возвращает серверный путь скрипта: script_path разрешается
// относительно пути base_url (или корня). Пустой script_path даёт путь по умолчанию.
func ScriptRoute(cfg config.SubmitConfig) string {
	if cfg.ScriptPath == "" {
		return submissionsave.ScriptPath
	}
	ref, err := url.Parse(cfg.ScriptPath)
	if err != nil {
		return submissionsave.ScriptPath
	}
	base := &url.URL{Path: "/"}
	if page, err := url.Parse(cfg.BaseURL); err == nil && page.Path != "" {
		base = &url.URL{Path: page.Path}
	}
	return base.ResolveReference(ref).Path
}

// SaveURL возвращает адрес, который клиент использует для отправки ответов:
// маршрут сервера в режиме route и смонтированный путь скрипта в режиме script.
func SaveURL(cfg config.SubmitConfig, route string) string {
	if cfg.Mode == config.SubmitModeRoute {
		return route
	}
	return ScriptRoute(cfg)
}
