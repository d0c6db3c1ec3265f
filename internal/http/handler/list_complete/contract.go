package listcomplete

import "context"

type UseCase interface {
	CompleteList(ctx context.Context, idx string) error
}
