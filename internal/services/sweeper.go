package services

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs the expiry sweep on a fixed interval until its context is
// cancelled.
type Sweeper struct {
	files    *FileService
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(files *FileService, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		files:    files,
		interval: interval,
		log:      log.With(slog.String("component", "sweeper")),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			if _, err := s.files.DeleteExpired(time.Now()); err != nil {
				s.log.Error("sweep failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		}
	}
}
