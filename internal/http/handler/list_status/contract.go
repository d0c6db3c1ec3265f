package liststatus

import (
	"context"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type UseCase interface {
	Status(ctx context.Context) (domain.ListCounts, error)
}
