package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Setup настраивает slog по умолчанию: JSON-обработчик, обёрнутый в LoggerImpl.
// output - stdout, stderr или путь к файлу. Возвращает функцию закрытия файла.
func Setup(level, output string) (func(), error) {
	var writer io.Writer
	var closer io.Closer

	switch strings.ToLower(output) {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		closer = f
	}

	handler := slog.Handler(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(slog.New(NewLoggerImpl(handler)))

	return func() {
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}

// ParseLevel переводит строковый уровень в slog.Level; неизвестное значение даёт info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
