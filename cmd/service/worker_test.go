package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	segmentio "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursework_service/internal/domain"
	"coursework_service/pkg/logger"
)

// scriptedConsumer hands out a fixed message sequence, then blocks until the
// context is cancelled.
type scriptedConsumer struct {
	mu        sync.Mutex
	msgs      []segmentio.Message
	committed []int64
}

func (c *scriptedConsumer) Fetch(ctx context.Context) (segmentio.Message, error) {
	c.mu.Lock()
	if len(c.msgs) > 0 {
		msg := c.msgs[0]
		c.msgs = c.msgs[1:]
		c.mu.Unlock()
		return msg, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return segmentio.Message{}, ctx.Err()
}

func (c *scriptedConsumer) Commit(_ context.Context, msgs ...segmentio.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range msgs {
		c.committed = append(c.committed, msg.Offset)
	}
	return nil
}

func (c *scriptedConsumer) committedOffsets() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.committed...)
}

type stubActivityHandler struct {
	mu     sync.Mutex
	failOn map[uuid.UUID]bool
	seen   []uuid.UUID
}

func (h *stubActivityHandler) HandleActivity(_ context.Context, event domain.ActivityEvent) error {
	h.mu.Lock()
	h.seen = append(h.seen, event.PersonalAssignmentID)
	h.mu.Unlock()
	if h.failOn[event.PersonalAssignmentID] {
		return errors.New("storage unavailable")
	}
	return nil
}

func activityMessage(t *testing.T, offset int64, id uuid.UUID) segmentio.Message {
	t.Helper()
	value, err := json.Marshal(domain.ActivityEvent{
		PersonalAssignmentID: id,
		Kind:                 domain.ActivityKindComment,
		AuthorRole:           domain.AuthorRoleStudent,
	})
	require.NoError(t, err)
	return segmentio.Message{Partition: 0, Offset: offset, Value: value}
}

func TestNewActivityWorkerPoolSizeFloor(t *testing.T) {
	w := NewActivityWorker(nil, nil, logger.NewNop(), 0)
	assert.Equal(t, 1, w.poolSize)

	w = NewActivityWorker(nil, nil, logger.NewNop(), 8)
	assert.Equal(t, 8, w.poolSize)
}

func TestActivityWorkerStopsCommittingAtFirstRejection(t *testing.T) {
	first, second, third := uuid.New(), uuid.New(), uuid.New()
	consumer := &scriptedConsumer{msgs: []segmentio.Message{
		activityMessage(t, 1, first),
		activityMessage(t, 2, second),
		activityMessage(t, 3, third),
	}}
	handler := &stubActivityHandler{failOn: map[uuid.UUID]bool{second: true}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewActivityWorker(consumer, handler, logger.NewNop(), 3).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.seen) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	// only the offset before the rejected message may be committed, no
	// matter which handler finished first
	assert.Equal(t, []int64{1}, consumer.committedOffsets())
}

func TestActivityWorkerSkipsPoisonPayload(t *testing.T) {
	consumer := &scriptedConsumer{msgs: []segmentio.Message{
		{Partition: 0, Offset: 7, Value: []byte("not json")},
	}}
	handler := &stubActivityHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewActivityWorker(consumer, handler, logger.NewNop(), 2).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(consumer.committedOffsets()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Equal(t, []int64{7}, consumer.committedOffsets())
	assert.Empty(t, handler.seen)
}

// blockingHandler holds every call until released.
type blockingHandler struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	handled int
}

func (h *blockingHandler) HandleActivity(context.Context, domain.ActivityEvent) error {
	h.once.Do(func() { close(h.started) })
	<-h.release
	h.mu.Lock()
	h.handled++
	h.mu.Unlock()
	return nil
}

func TestActivityWorkerDrainsInFlightWorkOnShutdown(t *testing.T) {
	consumer := &scriptedConsumer{msgs: []segmentio.Message{
		activityMessage(t, 1, uuid.New()),
	}}
	handler := &blockingHandler{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewActivityWorker(consumer, handler, logger.NewNop(), 2).Start(ctx)
		close(done)
	}()

	<-handler.started
	cancel()

	select {
	case <-done:
		t.Fatal("worker returned with a handler still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(handler.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	handler.mu.Lock()
	handled := handler.handled
	handler.mu.Unlock()
	assert.Equal(t, 1, handled)
	assert.Equal(t, []int64{1}, consumer.committedOffsets())
}
