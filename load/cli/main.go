package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	defaultBaseURL     = "http://localhost:8770"
	defaultRate        = 5
	defaultDuration    = 60 * time.Second
	defaultPrefix      = "load"
	defaultResultsFile = "load/artifacts/results.bin"
)

var resultsFile = defaultResultsFile

func main() {
	var (
		baseURL   = flag.String("url", defaultBaseURL, "Base URL сервиса")
		rate      = flag.Int("rate", defaultRate, "Запросов в секунду")
		duration  = flag.Duration("duration", defaultDuration, "Длительность теста (например, 60s)")
		prefix    = flag.String("prefix", defaultPrefix, "Префикс имён файлов ответов")
		reset     = flag.Bool("reset", false, "Сбросить счётчики списков перед тестом")
		setupOnly = flag.Bool("setup-only", false, "Только подготовка окружения (проверка соединения)")
		report    = flag.Bool("report", false, "Показать отчёт из сохранённых результатов")
		plot      = flag.Bool("plot", false, "Сгенерировать HTML график из сохранённых результатов")
	)
	flag.Parse()

	if *report {
		showReport()
		return
	}

	if *plot {
		generatePlot()
		return
	}

	if *setupOnly {
		if err := setup(*baseURL, *reset); err != nil {
			log.Fatalf("Ошибка при подготовке окружения: %v", err)
		}
		return
	}

	// Полный цикл: setup + нагрузочное тестирование
	fmt.Println("=== Нагрузочное тестирование с Vegeta ===")
	fmt.Printf("URL: %s\n", *baseURL)
	fmt.Printf("Rate: %d req/s\n", *rate)
	fmt.Printf("Duration: %s\n", *duration)
	fmt.Println()

	fmt.Println("1. Подготовка тестового окружения...")
	if err := setup(*baseURL, *reset); err != nil {
		log.Fatalf("Ошибка при подготовке окружения: %v", err)
	}

	fmt.Println()
	fmt.Println("2. Запуск нагрузочного тестирования...")
	if err := runLoadTest(*baseURL, *rate, *duration, *prefix); err != nil {
		log.Fatalf("Ошибка при нагрузочном тестировании: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Тестирование завершено ===")
	fmt.Println("Для детального анализа выполните:")
	fmt.Printf("  go run ./load/cli -report\n")
	fmt.Printf("  go run ./load/cli -plot\n")
}

// setup проверяет соединение с сервисом и при необходимости сбрасывает счётчики.
func setup(baseURL string, reset bool) error {
	targets := []vegeta.Target{{Method: http.MethodGet, URL: baseURL + "/"}}
	if reset {
		targets = append(targets, vegeta.Target{Method: http.MethodPost, URL: baseURL + "/reset"})
	}

	attacker := vegeta.NewAttacker()
	for _, target := range targets {
		var metrics vegeta.Metrics
		targeter := vegeta.NewStaticTargeter(target)
		for res := range attacker.Attack(targeter, vegeta.Rate{Freq: 1, Per: time.Second}, time.Second, "setup") {
			metrics.Add(res)
		}
		metrics.Close()

		if metrics.StatusCodes["200"] == 0 {
			return fmt.Errorf("%s %s: статус %v", target.Method, target.URL, metrics.StatusCodes)
		}
	}

	fmt.Println("Сервис доступен")
	if reset {
		fmt.Println("Счётчики списков сброшены")
	}
	return nil
}

// runLoadTest запускает нагрузочное тестирование
func runLoadTest(baseURL string, rate int, duration time.Duration, prefix string) error {
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", rate)
	}
	targeter := newStudyTargeter(baseURL, prefix)

	// Настраиваем атакующего
	workers := uint64(rate)
	attacker := vegeta.NewAttacker(
		vegeta.Timeout(30*time.Second),
		vegeta.Workers(workers),
	)

	// Запускаем атаку
	var metrics vegeta.Metrics
	rateLimit := vegeta.Rate{Freq: rate, Per: time.Second}

	// Собираем результаты
	var allResults []vegeta.Result
	for res := range attacker.Attack(targeter, rateLimit, duration, "load-test") {
		metrics.Add(res)
		allResults = append(allResults, *res)
	}
	metrics.Close()

	// Сохраняем результаты в файл
	if err := saveResults(allResults); err != nil {
		return fmt.Errorf("сохранить результаты: %w", err)
	}

	// Выводим отчёт
	reporter := vegeta.NewTextReporter(&metrics)
	if err := reporter(os.Stdout); err != nil {
		return fmt.Errorf("сгенерировать отчёт: %w", err)
	}

	return nil
}

// newStudyTargeter чередует выдачу списка (GET /start) и сохранение ответов (POST /save),
// как это делает поток участников.
func newStudyTargeter(baseURL, prefix string) vegeta.Targeter {
	var seq atomic.Uint64
	return func(t *vegeta.Target) error {
		n := seq.Add(1)
		if n%2 == 1 {
			*t = vegeta.Target{Method: http.MethodGet, URL: baseURL + "/start"}
			return nil
		}

		body, err := json.Marshal(map[string]any{
			"filename": fmt.Sprintf("%s-%d.json", prefix, n/2),
			"filedata": map[string]any{
				"trial":    1,
				"response": "4",
				"sent_at":  time.Now().Format(time.RFC3339Nano),
			},
		})
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		*t = vegeta.Target{
			Method: http.MethodPost,
			URL:    baseURL + "/save",
			Header: http.Header{"Content-Type": []string{"application/json"}},
			Body:   body,
		}
		return nil
	}
}

// saveResults сохраняет результаты в бинарный файл
func saveResults(results []vegeta.Result) error {
	if err := os.MkdirAll(filepath.Dir(resultsFile), 0o755); err != nil {
		return fmt.Errorf("создать директорию: %w", err)
	}

	file, err := os.Create(resultsFile)
	if err != nil {
		return fmt.Errorf("создать файл: %w", err)
	}
	defer file.Close()

	encoder := vegeta.NewEncoder(file)
	for i := range results {
		if err := encoder.Encode(&results[i]); err != nil {
			return fmt.Errorf("записать результат: %w", err)
		}
	}

	fmt.Printf("Результаты сохранены в %s\n", resultsFile)
	return nil
}

// showReport показывает отчёт из сохранённых результатов
func showReport() {
	if err := renderReport(os.Stdout, resultsFile); err != nil {
		log.Fatalf("Не удалось построить отчёт: %v", err)
	}
}

func renderReport(out io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer file.Close()

	decoder := vegeta.NewDecoder(file)
	var metrics vegeta.Metrics

	for {
		var res vegeta.Result
		if err := decoder.Decode(&res); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode result: %w", err)
		}
		metrics.Add(&res)
	}
	metrics.Close()

	reporter := vegeta.NewTextReporter(&metrics)
	if err := reporter(out); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// generatePlot генерирует HTML график из сохранённых результатов
// Использует CLI утилиту vegeta для генерации графика
func generatePlot() {
	writePlotInstructions(os.Stdout)
}

func writePlotInstructions(out io.Writer) {
	fmt.Fprintln(out, "Для генерации HTML графика используйте CLI утилиту vegeta:")
	fmt.Fprintf(out, "  vegeta plot %s > load/artifacts/plot.html\n", resultsFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Установка CLI утилиты:")
	fmt.Fprintln(out, "  go install github.com/tsenart/vegeta/v12@latest")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Или используйте сохранённые результаты для анализа через другие инструменты.")
}
