package main

import (
	"context"
	"encoding/json"
	"sync"

	segmentio "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"coursework_service/internal/domain"
	"coursework_service/pkg/logger"
)

type activityConsumer interface {
	Fetch(ctx context.Context) (segmentio.Message, error)
	Commit(ctx context.Context, msgs ...segmentio.Message) error
}

type activityHandler interface {
	HandleActivity(ctx context.Context, event domain.ActivityEvent) error
}

// ActivityWorker consumes student/grader activity events and applies them to
// personal assignments. Handlers run on a pool, but offsets are committed
// strictly in fetch order: a rejected message halts commits for its
// partition so neither it nor anything fetched after it is marked consumed
// before redelivery. Malformed payloads are logged and committed so one bad
// message cannot wedge the partition.
type ActivityWorker struct {
	consumer activityConsumer
	activity activityHandler
	logger   *logger.Logger
	poolSize int
}

func NewActivityWorker(
	consumer activityConsumer,
	activity activityHandler,
	log *logger.Logger,
	poolSize int,
) *ActivityWorker {
	if poolSize < 1 {
		poolSize = 1
	}
	return &ActivityWorker{
		consumer: consumer,
		activity: activity,
		logger:   log,
		poolSize: poolSize,
	}
}

type activityJob struct {
	msg      segmentio.Message
	accepted chan bool
}

// Start consumes until ctx is cancelled and returns only after every
// in-flight handler has finished and its offset has been settled.
func (w *ActivityWorker) Start(ctx context.Context) {
	jobs := make(chan *activityJob)
	pending := make(chan *activityJob, w.poolSize*2)

	// Handling and commits outlive ctx so messages already accepted from
	// the broker are settled cleanly during shutdown.
	detached := context.WithoutCancel(ctx)

	var handlers sync.WaitGroup
	for i := 0; i < w.poolSize; i++ {
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			for job := range jobs {
				job.accepted <- w.handle(detached, job.msg)
			}
		}()
	}

	committed := make(chan struct{})
	go func() {
		defer close(committed)
		halted := make(map[int]bool)
		for job := range pending {
			ok := <-job.accepted
			if !ok {
				halted[job.msg.Partition] = true
			}
			if halted[job.msg.Partition] {
				continue
			}
			w.commit(detached, job.msg)
		}
	}()

	for {
		msg, err := w.consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Error("failed to fetch activity message", zap.Error(err))
			continue
		}
		job := &activityJob{msg: msg, accepted: make(chan bool, 1)}
		pending <- job
		jobs <- job
	}

	close(jobs)
	handlers.Wait()
	close(pending)
	<-committed
	w.logger.Info("activity worker stopped")
}

// handle reports whether the message may be committed.
func (w *ActivityWorker) handle(ctx context.Context, msg segmentio.Message) bool {
	var event domain.ActivityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Warn("failed to unmarshal activity event",
			zap.ByteString("value", msg.Value),
			zap.Error(err),
		)
		return true
	}

	if err := w.activity.HandleActivity(ctx, event); err != nil {
		w.logger.Error("failed to handle activity event",
			zap.String("personal_assignment_id", event.PersonalAssignmentID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (w *ActivityWorker) commit(ctx context.Context, msg segmentio.Message) {
	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error("failed to commit activity message", zap.Error(err))
	}
}
