package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ewok-core/ewok-paper/internal/infrastructure/randomizer"
	"github.com/ewok-core/ewok-paper/internal/logging"
	"github.com/ewok-core/ewok-paper/internal/participant"
)

func main() {
	var (
		serverURL = flag.String("url", "http://localhost:8770", "Base URL сервиса исследования")
		mode      = flag.String("mode", "", "Режим отправки: route или script (по умолчанию режим сервера)")
		pageURL   = flag.String("page", "", "Адрес страницы эксперимента для режима script")
		seed      = flag.Int64("seed", 0, "Seed генератора случайных чисел (0 - от текущего времени)")
		id        = flag.String("participant", "", "Идентификатор участника (по умолчанию UUID)")
		logLevel  = flag.String("log-level", "info", "Уровень логирования")
	)
	flag.Parse()

	cleanup, err := logging.Setup(*logLevel, "stderr")
	if err != nil {
		log.Fatalf("failed to setup logger: %v", err)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *id == "" {
		*id = uuid.NewString()
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	result, err := participant.Run(ctx, participant.Options{
		ServerURL:   *serverURL,
		Mode:        *mode,
		PageURL:     *pageURL,
		Participant: *id,
		Randomizer:  randomizer.NewSeeded(*seed),
	})
	if err != nil {
		slog.Error("participant run failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("participant %s completed list %s (%d trials, mode %s, seed %d)\n",
		result.Participant, result.ListIdx, len(result.Trials), result.Mode, *seed)
}
