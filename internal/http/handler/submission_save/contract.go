package submissionsave

import (
	"context"
	"encoding/json"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

type UseCase interface {
	SaveSubmission(ctx context.Context, filename string, data json.RawMessage) (domain.Submission, error)
}
