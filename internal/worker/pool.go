package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	QueueFiscal        = "jobs:fiscal"
	QueueFiscalDelayed = "jobs:fiscal:delayed"
	QueueEmail         = "jobs:email"
)

// Job types.
const (
	JobEmit  = "emit"
	JobPoll  = "poll"
	JobEmail = "email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Attempt int             `json:"attempt"`
}

// Handler processes the jobs of one queue.
type Handler interface {
	Process(ctx context.Context, job Job)
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
	now func() time.Time
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb, now: time.Now}
}

// EnqueueEmission pushes the first emission job of a committed sale.
func (d *Dispatcher) EnqueueEmission(ctx context.Context, storeID, saleID uuid.UUID) error {
	return d.enqueue(ctx, QueueFiscal, JobEmit, FiscalJobPayload{SaleID: saleID.String(), StoreID: storeID.String()})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Schedule parks job in the delayed set until delay has elapsed. The retry
// cron moves it back to the fiscal queue once due.
func (d *Dispatcher) Schedule(ctx context.Context, job Job, delay time.Duration) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	due := d.now().Add(delay)
	return d.rdb.ZAdd(ctx, QueueFiscalDelayed, redis.Z{Score: float64(due.Unix()), Member: encoded}).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming every queue in
// handlers. Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Strs("queues", queues).Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers map[string]Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Msg("no handler for queue")
		return
	}

	ctx, span := otel.Tracer("apistock/worker").Start(ctx, "worker."+job.Type)
	span.SetAttributes(attribute.String("queue", queue), attribute.Int("attempt", job.Attempt))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("queue", queue).Str("type", job.Type).Msg("job handler panicked")
		}
	}()
	h.Process(ctx, job)
}
