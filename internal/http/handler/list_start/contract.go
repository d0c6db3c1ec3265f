package liststart

import (
	"context"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type UseCase interface {
	StartList(ctx context.Context) (domain.StimulusList, error)
}
