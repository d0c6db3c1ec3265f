package experimentconfig

import "github.com/ewok-core/ewok-paper/internal/domain"

type UseCase interface {
	ExperimentSettings(saveURL string) domain.ExperimentSettings
}
