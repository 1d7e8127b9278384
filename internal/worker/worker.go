package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/queue"
)

// Worker consumes queued calibration jobs and runs proposal generation for
// each. The calibration service itself is synchronous; the worker only
// supplies host-side scheduling.
type Worker struct {
	queue       *queue.RedisQueue
	svc         *calibration.Service
	concurrency int
	batchSize   int
}

func New(q *queue.RedisQueue, svc *calibration.Service, concurrency, batchSize int) *Worker {
	return &Worker{
		queue:       q,
		svc:         svc,
		concurrency: concurrency,
		batchSize:   batchSize,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	log.Printf("Starting worker with concurrency=%d, batchSize=%d", w.concurrency, w.batchSize)

	jobs := make(chan queue.Message, w.concurrency*2)
	var wg sync.WaitGroup

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processJobs(ctx, workerID, jobs)
		}(i)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
				messages, err := w.queue.Consume(ctx, int64(w.batchSize), 5*time.Second)
				if err != nil {
					log.Printf("Error consuming messages: %v", err)
					time.Sleep(time.Second)
					continue
				}

				for _, msg := range messages {
					select {
					case jobs <- msg:
					case <-ctx.Done():
						close(jobs)
						return
					}
				}
			}
		}
	}()

	wg.Wait()
	return nil
}

func (w *Worker) processJobs(ctx context.Context, workerID int, jobs <-chan queue.Message) {
	for msg := range jobs {
		if err := w.runJob(ctx, msg); err != nil {
			log.Printf("Worker %d: error processing job %s: %v", workerID, msg.Job.JobID, err)
			continue
		}

		if err := w.queue.Ack(ctx, msg.ID); err != nil {
			log.Printf("Worker %d: error acking %s: %v", workerID, msg.ID, err)
		}
	}
}

func (w *Worker) runJob(ctx context.Context, msg queue.Message) error {
	job := msg.Job
	log.Printf("Running calibration job %s (scope=%s, window=%dd)", job.JobID, scopeLabel(job.Scope), job.WindowDays)

	p, err := w.svc.ProposeCalibration(ctx, job.Scope, job.WindowDays, &job.JobID)
	if err != nil {
		return err
	}

	switch p.Status {
	case domain.ProposalStatusProposed:
		log.Printf("Job %s: proposal %s awaiting operator review (threshold %.2f, expected approval shift %+.3f)",
			job.JobID, p.ID, p.ProposedPassThreshold, p.ExpectedApprovalRateChange)
	default:
		log.Printf("Job %s: proposal %s recorded as %s: %s", job.JobID, p.ID, p.Status, p.Reason)
	}

	return nil
}

func scopeLabel(scope *string) string {
	if scope == nil {
		return "global"
	}
	return *scope
}
