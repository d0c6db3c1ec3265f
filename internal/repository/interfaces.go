package repository

import (
	"context"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

// Repository объединяет все доменные репозитории.
type Repository interface {
	ListRepository
	SubmissionRepository
}

// ListRepository содержит операции со списками стимулов и их счётчиками.
type ListRepository interface {
	UpsertLists(ctx context.Context, lists []domain.StimulusList) error
	LockLowestCountList(ctx context.Context) (int, error)
	GetList(ctx context.Context, idx int) (domain.StimulusList, error)
	AddToCount(ctx context.Context, idx int, delta float64) error
	ListCounts(ctx context.Context) (domain.ListCounts, error)
	ResetCounts(ctx context.Context) error
}

// SubmissionRepository содержит операции с файлами ответов участников.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	GetSubmission(ctx context.Context, filename string) (domain.Submission, error)
}

// HealthChecker описывает метод проверки соединения.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
