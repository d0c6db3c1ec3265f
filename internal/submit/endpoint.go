package submit

import (
	"fmt"
	"net/url"

	"github.com/ewok-core/ewok-paper/internal/config"
)

// Endpoint определяет адрес, на который отправляются ответы участника.
// Реализация выбирается один раз при старте и не меняется во время работы.
type Endpoint interface {
	Mode() string
	Target() string
}

// RouteEndpoint отправляет данные на маршрут сервера эксперимента.
type RouteEndpoint struct {
	target string
}

// NewRouteEndpoint разрешает маршрут route относительно baseURL.
func NewRouteEndpoint(baseURL, route string) (*RouteEndpoint, error) {
	target, err := resolve(baseURL, route)
	if err != nil {
		return nil, err
	}
	return &RouteEndpoint{target: target}, nil
}

// Mode возвращает config.SubmitModeRoute.
func (e *RouteEndpoint) Mode() string { return config.SubmitModeRoute }

// Target возвращает разрешённый URL маршрута.
func (e *RouteEndpoint) Target() string { return e.target }

// ScriptEndpoint отправляет данные на скрипт по фиксированному относительному пути.
type ScriptEndpoint struct {
	target string
}

// NewScriptEndpoint разрешает относительный путь скрипта относительно адреса страницы эксперимента.
// Например, "../static/write_data.php" от "http://host/exp/" даёт "http://host/static/write_data.php".
func NewScriptEndpoint(pageURL, scriptPath string) (*ScriptEndpoint, error) {
	target, err := resolve(pageURL, scriptPath)
	if err != nil {
		return nil, err
	}
	return &ScriptEndpoint{target: target}, nil
}

// Mode возвращает config.SubmitModeScript.
func (e *ScriptEndpoint) Mode() string { return config.SubmitModeScript }

// Target возвращает разрешённый URL скрипта.
func (e *ScriptEndpoint) Target() string { return e.target }

// EndpointFromConfig выбирает стратегию отправки по режиму из конфигурации.
func EndpointFromConfig(cfg config.SubmitConfig) (Endpoint, error) {
	switch cfg.Mode {
	case config.SubmitModeRoute:
		return NewRouteEndpoint(cfg.BaseURL, cfg.Route)
	case config.SubmitModeScript:
		return NewScriptEndpoint(cfg.BaseURL, cfg.ScriptPath)
	default:
		return nil, fmt.Errorf("unknown submit mode %q", cfg.Mode)
	}
}

// resolve без baseURL оставляет путь как есть.
func resolve(baseURL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", ref, err)
	}
	if baseURL == "" {
		return r.String(), nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	return base.ResolveReference(r).String(), nil
}
