package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ewok-core/ewok-paper/internal/domain"
	"github.com/ewok-core/ewok-paper/internal/infrastructure/nower"
)

type pgxPool interface {
	trmpgx.Tr
	Close()
	Ping(ctx context.Context) error
}

// Storage инкапсулирует работу с PostgreSQL.
// Все методы выполняются в транзакции из контекста, если она открыта через trm.Manager.
type Storage struct {
	pool   pgxPool
	nower  nower.Nower
	sb     squirrel.StatementBuilderType
	getter *trmpgx.CtxGetter
}

// New создаёт новый слой хранения.
func New(pool pgxPool, nower nower.Nower) *Storage {
	return &Storage{
		pool:   pool,
		nower:  nower,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Close освобождает соединения пула.
func (s *Storage) Close() {
	s.pool.Close()
}

// Ping проверяет доступность подключения к БД.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// conn возвращает транзакцию из контекста либо пул.
func (s *Storage) conn(ctx context.Context) trmpgx.Tr {
	return s.getter.DefaultTrOrDB(ctx, s.pool)
}

// UpsertLists сохраняет списки стимулов и заводит нулевые счётчики для новых списков.
// Счётчики уже известных списков не меняются.
func (s *Storage) UpsertLists(ctx context.Context, lists []domain.StimulusList) error {
	db := s.conn(ctx)
	now := s.nower.Now()
	for _, list := range lists {
		idx, err := strconv.Atoi(list.Idx)
		if err != nil {
			return fmt.Errorf("%w: list index %q", domain.ErrInvalidInput, list.Idx)
		}
		items, err := json.Marshal(list.Items)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEncodeValue, err)
		}

		listSQL, listArgs, err := s.sb.
			Insert("stimulus_lists").
			Columns("list_idx", "items", "updated_at").
			Values(idx, items, now).
			Suffix("ON CONFLICT (list_idx) DO UPDATE SET items=EXCLUDED.items, updated_at=EXCLUDED.updated_at").
			ToSql()
		if err != nil {
			slog.ErrorContext(ctx, "failed to build upsert list query", "error", err)
			return fmt.Errorf("%w: %v", ErrBuildQuery, err)
		}
		if _, err := db.Exec(ctx, listSQL, listArgs...); err != nil {
			slog.ErrorContext(ctx, "failed to upsert stimulus list", "error", err, "list_idx", idx)
			return fmt.Errorf("%w: %v", ErrExecuteQuery, err)
		}

		countSQL, countArgs, err := s.sb.
			Insert("list_counts").
			Columns("list_idx", "usage_count").
			Values(idx, 0.0).
			Suffix("ON CONFLICT (list_idx) DO NOTHING").
			ToSql()
		if err != nil {
			slog.ErrorContext(ctx, "failed to build insert count query", "error", err)
			return fmt.Errorf("%w: %v", ErrBuildQuery, err)
		}
		if _, err := db.Exec(ctx, countSQL, countArgs...); err != nil {
			slog.ErrorContext(ctx, "failed to insert list count", "error", err, "list_idx", idx)
			return fmt.Errorf("%w: %v", ErrExecuteQuery, err)
		}
	}
	return nil
}

// LockLowestCountList блокирует таблицу счётчиков до конца транзакции и возвращает
// индекс списка с наименьшим счётчиком (при равенстве - с наименьшим индексом).
// Вызывать только внутри транзакции.
func (s *Storage) LockLowestCountList(ctx context.Context) (int, error) {
	db := s.conn(ctx)
	// Блокируется вся таблица: конкурентный вызов должен увидеть уже увеличенный счётчик.
	if _, err := db.Exec(ctx, "LOCK TABLE list_counts IN EXCLUSIVE MODE"); err != nil {
		slog.ErrorContext(ctx, "failed to lock list counts", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrExecuteQuery, err)
	}

	selectSQL, selectArgs, err := s.sb.
		Select("list_idx").
		From("list_counts").
		OrderBy("usage_count ASC", "list_idx ASC").
		Limit(1).
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build lowest count query", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	var idx int
	if err := db.QueryRow(ctx, selectSQL, selectArgs...).Scan(&idx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNoLists
		}
		slog.ErrorContext(ctx, "failed to select lowest count list", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrScanResult, err)
	}
	return idx, nil
}

// GetList возвращает список стимулов по индексу.
func (s *Storage) GetList(ctx context.Context, idx int) (domain.StimulusList, error) {
	selectSQL, selectArgs, err := s.sb.
		Select("items").
		From("stimulus_lists").
		Where(squirrel.Eq{"list_idx": idx}).
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build get list query", "error", err)
		return domain.StimulusList{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	var raw []byte
	if err := s.conn(ctx).QueryRow(ctx, selectSQL, selectArgs...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StimulusList{}, domain.ErrListNotFound
		}
		slog.ErrorContext(ctx, "failed to get stimulus list", "error", err, "list_idx", idx)
		return domain.StimulusList{}, fmt.Errorf("%w: %v", ErrScanResult, err)
	}
	list := domain.StimulusList{Idx: strconv.Itoa(idx)}
	if err := json.Unmarshal(raw, &list.Items); err != nil {
		return domain.StimulusList{}, fmt.Errorf("%w: %v", ErrScanResult, err)
	}
	if list.Items == nil {
		list.Items = []domain.Stimulus{}
	}
	return list, nil
}

// AddToCount атомарно прибавляет delta к счётчику списка.
func (s *Storage) AddToCount(ctx context.Context, idx int, delta float64) error {
	updateSQL, updateArgs, err := s.sb.
		Update("list_counts").
		Set("usage_count", squirrel.Expr("usage_count + ?", delta)).
		Where(squirrel.Eq{"list_idx": idx}).
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build update count query", "error", err)
		return fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	cmd, err := s.conn(ctx).Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update list count", "error", err, "list_idx", idx)
		return fmt.Errorf("%w: %v", ErrExecuteQuery, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrListNotFound
	}
	return nil
}

// ListCounts возвращает счётчики всех списков.
func (s *Storage) ListCounts(ctx context.Context) (domain.ListCounts, error) {
	selectSQL, selectArgs, err := s.sb.
		Select("list_idx", "usage_count").
		From("list_counts").
		OrderBy("list_idx ASC").
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build list counts query", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	rows, err := s.conn(ctx).Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query list counts", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExecuteQuery, err)
	}
	defer rows.Close()

	counts := domain.ListCounts{}
	for rows.Next() {
		var (
			idx   int
			count float64
		)
		if err := rows.Scan(&idx, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanResult, err)
		}
		counts[strconv.Itoa(idx)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanResult, err)
	}
	return counts, nil
}

// ResetCounts обнуляет счётчики всех списков.
func (s *Storage) ResetCounts(ctx context.Context) error {
	updateSQL, updateArgs, err := s.sb.
		Update("list_counts").
		Set("usage_count", 0.0).
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build reset counts query", "error", err)
		return fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	if _, err := s.conn(ctx).Exec(ctx, updateSQL, updateArgs...); err != nil {
		slog.ErrorContext(ctx, "failed to reset list counts", "error", err)
		return fmt.Errorf("%w: %v", ErrExecuteQuery, err)
	}
	return nil
}

// SaveSubmission сохраняет ответы участника. Повторное имя файла перезаписывает данные.
func (s *Storage) SaveSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	sub.ReceivedAt = s.nower.Now()
	insertSQL, insertArgs, err := s.sb.
		Insert("submissions").
		Columns("filename", "filedata", "received_at").
		Values(sub.Filename, []byte(sub.Data), sub.ReceivedAt).
		Suffix("ON CONFLICT (filename) DO UPDATE SET filedata=EXCLUDED.filedata, received_at=EXCLUDED.received_at").
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build save submission query", "error", err)
		return domain.Submission{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	if _, err := s.conn(ctx).Exec(ctx, insertSQL, insertArgs...); err != nil {
		if rejectedByJSONB(err) {
			return domain.Submission{}, fmt.Errorf("%w: filedata is not storable as jsonb: %v", domain.ErrInvalidInput, err)
		}
		slog.ErrorContext(ctx, "failed to save submission", "error", err)
		return domain.Submission{}, fmt.Errorf("%w: %v", ErrExecuteQuery, err)
	}
	return sub, nil
}

// GetSubmission возвращает сохранённые ответы по имени файла.
func (s *Storage) GetSubmission(ctx context.Context, filename string) (domain.Submission, error) {
	selectSQL, selectArgs, err := s.sb.
		Select("filename", "filedata", "received_at").
		From("submissions").
		Where(squirrel.Eq{"filename": filename}).
		ToSql()
	if err != nil {
		slog.ErrorContext(ctx, "failed to build get submission query", "error", err)
		return domain.Submission{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}
	var (
		sub  domain.Submission
		data []byte
	)
	err = s.conn(ctx).QueryRow(ctx, selectSQL, selectArgs...).Scan(&sub.Filename, &data, &sub.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get submission", "error", err)
		return domain.Submission{}, fmt.Errorf("%w: %v", ErrScanResult, err)
	}
	sub.Data = data
	return sub, nil
}

// rejectedByJSONB сообщает, что PostgreSQL не принял значение jsonb,
// например строку с \u0000.
func rejectedByJSONB(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgCodeUntranslatableCharacter, pgCodeInvalidTextRepresentation:
		return true
	}
	return false
}
