// Package participant моделирует одного участника исследования:
// получает список стимулов, перемешивает его, отвечает на каждую пробу
// и отправляет ответы на сервер хранения.
package participant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/domain"
	"github.com/ewok-core/ewok-paper/internal/infrastructure/randomizer"
	"github.com/ewok-core/ewok-paper/internal/logging"
	"github.com/ewok-core/ewok-paper/internal/shuffle"
	"github.com/ewok-core/ewok-paper/internal/submit"
)

// likertPoints - число вариантов ответа по шкале Ликерта.
const likertPoints = 7

// Options описывает один прогон участника.
type Options struct {
	// ServerURL - адрес сервиса исследования, например http://localhost:8770.
	ServerURL string
	// Mode - режим отправки; пусто означает режим, объявленный сервером.
	Mode string
	// PageURL - адрес страницы эксперимента для режима script.
	// По умолчанию ServerURL + "/exp/".
	PageURL     string
	Participant string
	Randomizer  randomizer.Randomizer
	Client      *http.Client
}

// Trial - ответ участника на один стимул.
type Trial struct {
	Trial      int    `json:"trial"`
	StimulusID any    `json:"stimulus_id"`
	Response   string `json:"response"`
	RTMs       int    `json:"rt_ms"`
}

// Result - данные, которые участник отправляет на сервер.
type Result struct {
	Participant string  `json:"participant"`
	ListIdx     string  `json:"list_idx"`
	Mode        string  `json:"routing_mode"`
	Trials      []Trial `json:"trials"`
}

// Run проходит эксперимент от начала до конца и возвращает отправленные данные.
// /complete отправляется только после завершения отправки ответов.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Randomizer == nil {
		opts.Randomizer = randomizer.New()
	}
	base := strings.TrimRight(opts.ServerURL, "/")
	ctx = logging.WithLogParticipant(ctx, opts.Participant)

	var settings domain.ExperimentSettings
	if err := getJSON(ctx, opts.Client, base+"/experiment/config", &settings); err != nil {
		return Result{}, fmt.Errorf("fetch experiment config: %w", err)
	}
	// Неизвестный режим не должен открывать выдачу списка
	endpoint, err := selectEndpoint(opts, base, settings)
	if err != nil {
		return Result{}, err
	}

	var list domain.StimulusList
	if err := getJSON(ctx, opts.Client, base+"/start", &list); err != nil {
		return Result{}, fmt.Errorf("start list: %w", err)
	}
	ctx = logging.WithLogListIdx(ctx, list.Idx)
	slog.InfoContext(ctx, "stimulus list received", "items", len(list.Items))

	result := Result{
		Participant: opts.Participant,
		ListIdx:     list.Idx,
		Mode:        endpoint.Mode(),
		Trials:      answer(opts.Randomizer, shuffle.Shuffle(opts.Randomizer, list.Items), settings),
	}

	submitter := submit.New(endpoint)
	submitter.Submit(ctx, opts.Participant+".json", result)
	submitter.Wait()

	body, err := json.Marshal(map[string]string{"idx": list.Idx})
	if err != nil {
		return Result{}, err
	}
	if err := post(ctx, opts.Client, base+"/complete", body); err != nil {
		return Result{}, fmt.Errorf("complete list: %w", err)
	}
	slog.InfoContext(ctx, "participant finished", "trials", len(result.Trials))
	return result, nil
}

func selectEndpoint(opts Options, base string, settings domain.ExperimentSettings) (submit.Endpoint, error) {
	mode := opts.Mode
	if mode == "" {
		mode = settings.RoutingMode
	}
	cfg := config.SubmitConfig{Mode: mode}
	switch mode {
	case config.SubmitModeRoute:
		cfg.BaseURL = base + "/"
		cfg.Route = settings.SaveURL
		if cfg.Route == "" || mode != settings.RoutingMode {
			cfg.Route = "/save"
		}
	case config.SubmitModeScript:
		cfg.BaseURL = opts.PageURL
		if cfg.BaseURL == "" {
			cfg.BaseURL = base + "/exp/"
		}
		cfg.ScriptPath = settings.SaveURL
		if cfg.ScriptPath == "" || mode != settings.RoutingMode {
			cfg.ScriptPath = "../static/write_data.php"
		}
	}
	return submit.EndpointFromConfig(cfg)
}

// answer строит синтетические ответы: случайная оценка 1..7 и время реакции
// в пределах показа стимула.
func answer(r randomizer.Randomizer, items []domain.Stimulus, settings domain.ExperimentSettings) []Trial {
	maxRT := int(settings.StimulusDurationMs)
	if maxRT <= 0 {
		maxRT = 2000
	}
	trials := make([]Trial, len(items))
	for i, item := range items {
		trials[i] = Trial{
			Trial:      i + 1,
			StimulusID: item["id"],
			Response:   strconv.Itoa(r.Intn(likertPoints) + 1),
			RTMs:       r.Intn(maxRT) + 1,
		}
	}
	return trials
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func post(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: status %d", url, resp.StatusCode)
	}
	return nil
}
