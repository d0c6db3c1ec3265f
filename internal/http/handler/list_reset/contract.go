package listreset

import "context"

type UseCase interface {
	ResetCounts(ctx context.Context) error
}
