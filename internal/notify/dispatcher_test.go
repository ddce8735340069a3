package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/feedback-widget/internal/domain"
	"go.uber.org/zap"
)

// recordingSender captures notifications handed to it.
type recordingSender struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (s *recordingSender) Send(ctx context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 8, zap.NewNop())

	d.Dispatch(domain.Notification{FeedbackID: 1, Message: "hello"})
	d.Dispatch(domain.Notification{FeedbackID: 2, Message: "world"})

	d.Close(time.Second)

	if got := sender.count(); got != 2 {
		t.Errorf("delivered %d notifications, want 2", got)
	}
}

func TestDispatcher_DispatchNeverBlocks(t *testing.T) {
	// A sender that blocks until released, so the queue fills up.
	release := make(chan struct{})
	blocking := senderFunc(func(ctx context.Context, n domain.Notification) error {
		<-release
		return nil
	})

	d := NewDispatcher(blocking, 1, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Dispatch(domain.Notification{FeedbackID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked the caller")
	}

	close(release)
	d.Close(time.Second)
}

func TestDispatcher_SenderFailureIsAbsorbed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, 4, zap.NewNop())

	d.Dispatch(domain.Notification{FeedbackID: 7})
	d.Close(time.Second)
	// No panic, no propagation: absorbed failures are the contract.
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, 4, zap.NewNop())
	d.Close(time.Second)
	d.Close(time.Second)
}

// senderFunc adapts a function to the Sender interface.
type senderFunc func(ctx context.Context, n domain.Notification) error

func (f senderFunc) Send(ctx context.Context, n domain.Notification) error {
	return f(ctx, n)
}
