package submissionget

import (
	"context"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type UseCase interface {
	GetSubmission(ctx context.Context, filename string) (domain.Submission, error)
}
