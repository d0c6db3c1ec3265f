package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	trm "github.com/avito-tech/go-transaction-manager/trm/v2"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/domain"
	"github.com/ewok-core/ewok-paper/internal/logging"
	"github.com/ewok-core/ewok-paper/internal/metrics"
	"github.com/ewok-core/ewok-paper/internal/repository"
	"github.com/ewok-core/ewok-paper/internal/stimuli"
)

const (
	// DefaultOperationTimeout таймаут по умолчанию для обычных операций
	DefaultOperationTimeout = 30 * time.Second
	// DefaultLongOperationTimeout таймаут по умолчанию для длительных операций
	DefaultLongOperationTimeout = 60 * time.Second
	// DefaultEpsilon доля счётчика, которую занимает незавершённая выдача списка
	DefaultEpsilon = 1e-3
)

// Repository описывает операции, которые требуются сервису.
type Repository interface {
	repository.Repository
}

// Service агрегирует бизнес-логику приложения.
type Service struct {
	repo   Repository
	health repository.HealthChecker
	cfg    config.Config
	trMgr  trm.Manager
}

func New(repo Repository, cfg config.Config, trMgr trm.Manager) *Service {
	svc := &Service{
		repo:  repo,
		cfg:   cfg,
		trMgr: trMgr,
	}
	if svc.cfg.Timeouts.Operation <= 0 {
		svc.cfg.Timeouts.Operation = DefaultOperationTimeout
	}
	if svc.cfg.Timeouts.LongOperation <= 0 {
		svc.cfg.Timeouts.LongOperation = DefaultLongOperationTimeout
	}
	if svc.cfg.Stimuli.Epsilon <= 0 || svc.cfg.Stimuli.Epsilon >= 1 {
		svc.cfg.Stimuli.Epsilon = DefaultEpsilon
	}
	if checker, ok := repo.(repository.HealthChecker); ok {
		svc.health = checker
	}
	return svc
}

// LoadStimuli читает CSV-списки из каталога и сохраняет их в одной транзакции.
// Возвращает число загруженных списков.
func (s *Service) LoadStimuli(ctx context.Context, dir string) (int, error) {
	ctx, cancel := s.longOperationContext(ctx)
	defer cancel()

	lists, err := stimuli.LoadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("load stimuli: %w", err)
	}
	if len(lists) == 0 {
		slog.WarnContext(ctx, "no stimulus lists found", "dir", dir)
		return 0, nil
	}
	err = s.trMgr.Do(ctx, func(ctx context.Context) error {
		return s.repo.UpsertLists(ctx, lists)
	})
	if err != nil {
		return 0, err
	}
	return len(lists), nil
}

// StartList выдаёт участнику список с наименьшим счётчиком и помечает выдачу.
// При равенстве счётчиков выбирается список с меньшим индексом.
func (s *Service) StartList(ctx context.Context) (domain.StimulusList, error) {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	var list domain.StimulusList
	err := s.trMgr.Do(ctx, func(ctx context.Context) error {
		idx, err := s.repo.LockLowestCountList(ctx)
		if err != nil {
			return err
		}
		if err := s.repo.AddToCount(ctx, idx, s.cfg.Stimuli.Epsilon); err != nil {
			return err
		}
		list, err = s.repo.GetList(ctx, idx)
		return err
	})
	if err != nil {
		return domain.StimulusList{}, logging.WrapError(ctx, err)
	}
	metrics.IncListsStarted()
	slog.InfoContext(logging.WithLogListIdx(ctx, list.Idx), "stimulus list started")
	return list, nil
}

// CompleteList отмечает завершение списка: счётчик дорастает до следующего целого.
func (s *Service) CompleteList(ctx context.Context, rawIdx string) error {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	ctx = logging.WithLogListIdx(ctx, rawIdx)
	idx, err := ParseListIdx(rawIdx)
	if err != nil {
		return logging.WrapError(ctx, err)
	}
	err = s.trMgr.Do(ctx, func(ctx context.Context) error {
		return s.repo.AddToCount(ctx, idx, 1-s.cfg.Stimuli.Epsilon)
	})
	if err != nil {
		return logging.WrapError(ctx, err)
	}
	metrics.IncListsCompleted()
	slog.InfoContext(ctx, "stimulus list completed")
	return nil
}

// Status возвращает счётчики всех списков.
func (s *Service) Status(ctx context.Context) (domain.ListCounts, error) {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	return s.repo.ListCounts(ctx)
}

// ResetCounts обнуляет счётчики всех списков.
func (s *Service) ResetCounts(ctx context.Context) error {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	err := s.trMgr.Do(ctx, func(ctx context.Context) error {
		return s.repo.ResetCounts(ctx)
	})
	if err != nil {
		return err
	}
	metrics.IncCountsResets()
	slog.WarnContext(ctx, "list counts reset")
	return nil
}

// SaveSubmission сохраняет ответы участника; повторное имя файла перезаписывает данные.
func (s *Service) SaveSubmission(ctx context.Context, filename string, data json.RawMessage) (domain.Submission, error) {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	ctx = logging.WithLogFilename(ctx, filename)
	if err := ValidateFilename(filename); err != nil {
		return domain.Submission{}, logging.WrapError(ctx, err)
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	saved, err := s.repo.SaveSubmission(ctx, domain.Submission{Filename: filename, Data: data})
	if err != nil {
		return domain.Submission{}, logging.WrapError(ctx, err)
	}
	metrics.IncSubmissionsReceived()
	slog.InfoContext(ctx, "submission stored", "bytes", len(data))
	return saved, nil
}

// GetSubmission возвращает сохранённый файл ответов.
func (s *Service) GetSubmission(ctx context.Context, filename string) (domain.Submission, error) {
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()

	if err := ValidateFilename(filename); err != nil {
		return domain.Submission{}, err
	}
	return s.repo.GetSubmission(ctx, filename)
}

// ExperimentSettings собирает публичные настройки эксперимента.
// saveURL - адрес, куда клиент должен отправлять ответы в выбранном режиме.
func (s *Service) ExperimentSettings(saveURL string) domain.ExperimentSettings {
	exp := s.cfg.Experiment
	return domain.ExperimentSettings{
		RoutingMode:                s.cfg.Submit.Mode,
		SaveURL:                    saveURL,
		TrialsPerBlock:             exp.TrialsPerBlock,
		StimulusDurationMs:         exp.StimulusDuration.Milliseconds(),
		FixationDurationMs:         exp.FixationDuration.Milliseconds(),
		CompletionCode:             exp.CompletionCode,
		NBackBase:                  exp.NBackBase,
		VigilanceRepeatBackRange:   exp.VigilanceRepeatBackRange,
		VigilanceFrequency:         exp.VigilanceFrequency,
		RepeatListShuffleBlockSize: exp.RepeatListShuffleBlockSize,
		BreaksPerExp:               exp.BreaksPerExp,
		BreakMaxLenSeconds:         int64(exp.BreakMaxLen / time.Second),
		NumLists:                   exp.NumLists,
		DebugMode:                  exp.DebugMode,
	}
}

// HealthCheck возвращает состояние зависимостей сервиса.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.health == nil {
		return nil
	}
	ctx, cancel := s.shortOperationContext(ctx)
	defer cancel()
	return s.health.Ping(ctx)
}

// shortOperationContext создаёт контекст с таймаутом для обычных операций.
func (s *Service) shortOperationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeouts.Operation)
}

// longOperationContext создаёт контекст с таймаутом для длительных операций.
func (s *Service) longOperationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeouts.LongOperation)
}
