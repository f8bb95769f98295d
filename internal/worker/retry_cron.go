package worker

// retry_cron.go
// Background goroutine that moves due jobs from the delayed set back to the
// fiscal queue. Uses the Circuit Breaker to avoid hammering a downed issuer.

import (
	"context"
	"strconv"
	"time"

	"github.com/Code-Vida/apistock/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = time.Second
	retryBatchSize    = 50
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB      *redis.Client
	CB       *infra.CircuitBreaker
	Interval time.Duration
}

// StartRetryCron launches a background goroutine that ticks every Interval
// and releases due delayed jobs. It respects the context for graceful
// shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				if _, err := releaseDue(ctx, cfg, time.Now()); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("retry_cron: failed to release delayed jobs")
				}
			}
		}
	}()
}

// releaseDue moves every job due at now to the fiscal queue and returns how
// many moved. ZREM decides ownership, so concurrent crons never push the
// same job twice.
func releaseDue(ctx context.Context, cfg RetryCronConfig, now time.Time) (int, error) {
	// If CB is open, skip entirely: don't hammer a downed issuer
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return 0, nil
	}

	due, err := cfg.RDB.ZRangeByScore(ctx, QueueFiscalDelayed, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := cfg.RDB.ZRem(ctx, QueueFiscalDelayed, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := cfg.RDB.LPush(ctx, QueueFiscal, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		log.Debug().Int("count", moved).Msg("retry_cron: delayed jobs released")
	}
	return moved, nil
}
