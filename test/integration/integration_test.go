package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	pgxv5 "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	manager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/http/router"
	"github.com/ewok-core/ewok-paper/internal/infrastructure/nower"
	"github.com/ewok-core/ewok-paper/internal/infrastructure/randomizer"
	"github.com/ewok-core/ewok-paper/internal/participant"
	"github.com/ewok-core/ewok-paper/internal/repository"
	"github.com/ewok-core/ewok-paper/internal/service"
)

func TestHappyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("пропуск интеграционного теста в режиме -short")
	}
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("testcontainers не поддерживается в среде Windows CI")
	}

	ctx := context.Background()
	pgContainer, dsn := setupPostgres(t, ctx)
	defer func() {
		_ = pgContainer.Terminate(ctx)
	}()

	runMigrations(t, dsn)

	// Подключаемся с повторными попытками для стабильности в CI
	var pool *pgxpool.Pool
	var err error
	for i := 0; i < 5; i++ {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				break
			}
			pool.Close()
		}
		if i < 4 {
			time.Sleep(time.Second)
		}
	}
	require.NoError(t, err, "failed to connect to database after retries")
	defer pool.Close()

	cfg := config.Config{
		Timeouts: config.TimeoutConfig{
			Operation:     5 * time.Second,
			LongOperation: 10 * time.Second,
		},
		Stimuli: config.StimuliConfig{Dir: "testdata", Epsilon: 1e-3},
		Submit:  config.SubmitConfig{Mode: config.SubmitModeRoute, Route: "/save"},
	}
	repo := repository.New(pool, nower.New())
	trMgr := manager.Must(pgxv5.NewDefaultFactory(pool))
	svc := service.New(repo, cfg, trMgr)

	loaded, err := svc.LoadStimuli(ctx, cfg.Stimuli.Dir)
	require.NoError(t, err)
	require.Equal(t, 3, loaded)

	// Определяем путь к openapi.yml относительно корня проекта
	cwd, err := os.Getwd()
	require.NoError(t, err)
	root := filepath.Clean(filepath.Join(cwd, "..", ".."))
	spec, err := os.ReadFile(filepath.Join(root, "openapi.yml"))
	require.NoError(t, err)
	h := router.New(svc, cfg, spec)
	server := httptest.NewServer(h.Router())
	defer server.Close()

	resp := doRequest(t, server, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Выдача идёт по возрастанию счётчика, при равенстве - по индексу
	var first struct {
		Idx  string           `json:"idx"`
		Stim []map[string]any `json:"stim"`
	}
	resp = doRequest(t, server, http.MethodGet, "/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &first)
	require.Equal(t, "0", first.Idx)
	require.Len(t, first.Stim, 2)
	require.Equal(t, float64(1), first.Stim[0]["tgtvar"])

	resp = doRequest(t, server, http.MethodPost, "/complete", map[string]string{"idx": first.Idx})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPost, "/complete", map[string]string{"idx": "42"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Полный прогон участника: конфигурация, выдача, перемешивание, отправка, завершение
	result, err := participant.Run(ctx, participant.Options{
		ServerURL:   server.URL,
		Participant: "subject42",
		Randomizer:  randomizer.NewSeeded(42),
	})
	require.NoError(t, err)
	require.Equal(t, "1", result.ListIdx)
	require.Len(t, result.Trials, 2)

	var stored struct {
		Filename string         `json:"filename"`
		Filedata map[string]any `json:"filedata"`
	}
	resp = doRequest(t, server, http.MethodGet, "/submissions/subject42.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &stored)
	require.Equal(t, "subject42.json", stored.Filename)
	require.Equal(t, "subject42", stored.Filedata["participant"])

	// Режим script принимается тем же сервисом
	resp = doRequest(t, server, http.MethodPost, "/static/write_data.php", map[string]any{
		"filename": "subject43.json",
		"filedata": []int{1, 2, 3},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPost, "/save", map[string]any{
		"filename": "../escape.json",
		"filedata": 1,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var counts map[string]float64
	resp = doRequest(t, server, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &counts)
	require.InDelta(t, 1.0, counts["0"], 1e-9)
	require.InDelta(t, 1.0, counts["1"], 1e-9)
	require.InDelta(t, 0.0, counts["2"], 1e-9)

	resp = doRequest(t, server, http.MethodGet, "/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Одновременные выдачи не получают один и тот же список
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		idxs []string
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := svc.StartList(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			idxs = append(idxs, list.Idx)
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.ElementsMatch(t, []string{"0", "1", "2"}, idxs)
}

func setupPostgres(t *testing.T, ctx context.Context) (*tcpostgres.PostgresContainer, string) {
	t.Helper()
	// Увеличиваем таймаут для CI окружения
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ewok_study"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)

	// Ждём готовности контейнера с повторными попытками
	var connStr string
	var lastErr error
	for i := 0; i < 10; i++ {
		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		if err == nil {
			// Проверяем подключение
			pool, testErr := pgxpool.New(ctx, connStr)
			if testErr == nil {
				testErr = pool.Ping(ctx)
				pool.Close()
				if testErr == nil {
					return container, connStr
				}
				lastErr = testErr
			} else {
				lastErr = testErr
			}
		} else {
			lastErr = err
		}
		if i < 9 {
			time.Sleep(time.Second)
		}
	}
	require.NoError(t, lastErr, "failed to connect to postgres container after retries")
	return container, connStr
}

func runMigrations(t *testing.T, dsn string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	root := filepath.Clean(filepath.Join(cwd, "..", ".."))
	migrationsPath := filepath.Join(root, "migrations")
	m, err := migrate.New("file://"+migrationsPath, dsn)
	require.NoError(t, err)
	defer m.Close()
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}
}

func doRequest(t *testing.T, server *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
