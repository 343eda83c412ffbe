package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fuel_dispatch/internal/queue"
	"fuel_dispatch/internal/repository"
)

// WorkerQueue is the consumer surface of the dispatch queue. A delivered
// job stays on the consumer's processing list until Ack; Recover requeues
// jobs stranded there by an earlier crash.
type WorkerQueue interface {
	DispatchQueue
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (*queue.Job, error)
	Ack(ctx context.Context, consumer string, job *queue.Job) error
	Recover(ctx context.Context, consumer string) (int, error)
	PromoteDue(ctx context.Context) (int, error)
}

type DispatchConfig struct {
	Workers     int
	MaxAttempts int
	Backoff     time.Duration
}

// DispatchWorker consumes dispatch jobs. Consumers block on the queue
// when it is empty; a failing or panicking job never stops the loop.
type DispatchWorker struct {
	queue      WorkerQueue
	orderRepo  repository.OrderRepository
	driverRepo repository.DriverRepository
	notifier   Notifier
	cfg        DispatchConfig

	wg sync.WaitGroup
}

func NewDispatchWorker(
	q WorkerQueue,
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	notifier Notifier,
	cfg DispatchConfig,
) *DispatchWorker {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &DispatchWorker{
		queue:      q,
		orderRepo:  orderRepo,
		driverRepo: driverRepo,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Start launches the consumers and the delayed-job promoter. It returns
// immediately; cancel ctx and call Wait to stop.
func (w *DispatchWorker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.consume(ctx, id)
		}(i)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.promote(ctx)
	}()

	log.Printf("dispatch worker started with %d consumers", w.cfg.Workers)
}

// Wait blocks until all consumers have drained after ctx cancellation.
func (w *DispatchWorker) Wait() {
	w.wg.Wait()
}

func (w *DispatchWorker) consume(ctx context.Context, id int) {
	// Stable names, so a restarted process reclaims its predecessor's
	// in-flight jobs.
	name := fmt.Sprintf("consumer-%d", id)

	recovered, err := w.queue.Recover(ctx, name)
	if err != nil {
		log.Printf("%s: failed to recover in-flight jobs: %v", name, err)
	} else if recovered > 0 {
		log.Printf("%s: requeued %d in-flight jobs from an earlier run", name, recovered)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, name, 2*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("%s: dequeue failed: %v", name, err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := w.handle(ctx, job); err != nil {
			log.Printf("%s: job %s (order %d) failed: %v", name, job.ID, job.OrderID, err)
			w.retryFailed(ctx, job)
		}
		if err := w.queue.Ack(ctx, name, job); err != nil {
			log.Printf("%s: failed to ack job %s: %v", name, job.ID, err)
		}
	}
}

// retryFailed keeps a failed assignment alive through the backoff path so
// the order is never stranded in PENDING with nothing queued for it.
// Notification delivery is best effort and not retried.
func (w *DispatchWorker) retryFailed(ctx context.Context, job *queue.Job) {
	if job.Kind != queue.KindAssignDriver {
		return
	}
	if err := w.deferJob(ctx, job, "assignment attempt failed"); err != nil {
		log.Printf("ERROR: failed to re-enqueue job %s (order %d): %v", job.ID, job.OrderID, err)
	}
}

func (w *DispatchWorker) promote(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.PromoteDue(ctx); err != nil {
				log.Printf("failed to promote delayed jobs: %v", err)
			}
		}
	}
}

// handle routes one job. The recover guard keeps a panicking handler
// from killing the consumer loop.
func (w *DispatchWorker) handle(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	switch job.Kind {
	case queue.KindAssignDriver:
		return w.assignDriver(ctx, job)
	case queue.KindSendNotification:
		return w.sendNotification(ctx, job)
	default:
		log.Printf("dropping job %s with unknown kind %q", job.ID, job.Kind)
		return nil
	}
}

// assignDriver picks the first available driver and performs the guarded
// PENDING -> ASSIGNED transition. Redelivered jobs and already-assigned
// orders are successful no-ops. With nobody available the job is
// re-enqueued with backoff until MaxAttempts, then dead-lettered.
func (w *DispatchWorker) assignDriver(ctx context.Context, job *queue.Job) error {
	driver, err := w.driverRepo.FirstAvailable()
	if err != nil {
		return fmt.Errorf("driver lookup failed: %w", err)
	}

	if driver == nil {
		return w.deferJob(ctx, job, "no driver available")
	}

	assigned, err := w.orderRepo.AssignDriver(job.OrderID, driver.ID)
	if err != nil {
		return fmt.Errorf("assignment failed: %w", err)
	}
	if !assigned {
		log.Printf("order %d already left PENDING, job %s is a no-op", job.OrderID, job.ID)
		return nil
	}

	log.Printf("order %d assigned to driver %d", job.OrderID, driver.ID)

	notify := queue.NewJob(queue.KindSendNotification, job.OrderID)
	notify.Message = "A driver has been assigned to your fuel order"
	if err := w.queue.Enqueue(ctx, notify); err != nil {
		log.Printf("failed to enqueue notification for order %d: %v", job.OrderID, err)
	}
	return nil
}

func (w *DispatchWorker) deferJob(ctx context.Context, job *queue.Job, reason string) error {
	job.Attempts++
	if job.Attempts >= w.cfg.MaxAttempts {
		log.Printf("ERROR: %s for order %d after %d attempts, dead-lettering job %s",
			reason, job.OrderID, job.Attempts, job.ID)
		return w.queue.DeadLetter(ctx, job)
	}

	delay := time.Duration(job.Attempts) * w.cfg.Backoff
	log.Printf("%s for order %d, retrying in %s (attempt %d/%d)",
		reason, job.OrderID, delay, job.Attempts, w.cfg.MaxAttempts)
	return w.queue.EnqueueAfter(ctx, job, delay)
}

// sendNotification is best effort: delivery failure is logged by the
// notifier and the job is not retried.
func (w *DispatchWorker) sendNotification(ctx context.Context, job *queue.Job) error {
	order, err := w.orderRepo.GetByID(job.OrderID)
	if err != nil {
		return fmt.Errorf("order lookup failed: %w", err)
	}
	if order.Customer == nil {
		log.Printf("order %d has no customer loaded, skipping notification", job.OrderID)
		return nil
	}

	message := job.Message
	if message == "" {
		message = "Update on your fuel order " + order.OrderNumber
	}
	w.notifier.SendMessage(order.Customer.Phone, message)
	return nil
}
