package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ewok-core/ewok-paper/internal/domain"
)

const maxFilenameLen = 255

// ValidateFilename проверяет, что имя файла ответов - простое имя без каталогов.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: filename cannot be empty", domain.ErrInvalidInput)
	}
	if len(name) > maxFilenameLen {
		return fmt.Errorf("%w: filename too long (max %d characters)", domain.ErrInvalidInput, maxFilenameLen)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: filename must not contain path separators", domain.ErrInvalidInput)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: filename contains NUL", domain.ErrInvalidInput)
	}
	return nil
}

// ParseListIdx разбирает индекс списка из строки запроса.
func ParseListIdx(raw string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: list index %q", domain.ErrInvalidInput, raw)
	}
	return idx, nil
}
