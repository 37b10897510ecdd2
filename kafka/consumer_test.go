package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.RawProductEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, raw models.RawProductEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, raw)
	return true
}

// scriptedReader returns its messages, then blocks until ctx is done.
type scriptedReader struct {
	msgs   [][]byte
	closed bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return kafka.Message{Value: m}, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func TestHandleMessage_SkipsMalformed(t *testing.T) {
	d := &recordingDispatcher{}
	c := &ProductEventConsumer{dispatcher: d, logger: zap.NewNop()}

	c.HandleMessage(context.Background(), "product-views", []byte("{not json"))
	c.HandleMessage(context.Background(), "product-views", nil)
	c.HandleMessage(context.Background(), "product-views", []byte(`{"product_id":"p-1","views":20}`))

	assert.Len(t, d.events, 1)
	assert.Equal(t, "p-1", d.events[0]["product_id"])
}

func TestRun_ConsumesUntilCancelled(t *testing.T) {
	d := &recordingDispatcher{}
	reader := &scriptedReader{msgs: [][]byte{
		[]byte(`{"product_id":"a"}`),
		[]byte(`{"product_id":"b"}`),
	}}
	c := &ProductEventConsumer{
		readers:    map[string]messageReader{"ecommerce-transactions": reader},
		dispatcher: d,
		logger:     zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.events) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, reader.closed)
}

type failingReader struct{ closed bool }

func (r *failingReader) ReadMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("group coordinator not available")
}

func (r *failingReader) Close() error {
	r.closed = true
	return nil
}

func TestRun_StopsOnReadError(t *testing.T) {
	reader := &failingReader{}
	c := &ProductEventConsumer{
		readers:    map[string]messageReader{"product-views": reader},
		dispatcher: &recordingDispatcher{},
		logger:     zap.NewNop(),
	}

	c.Run(context.Background())
	assert.True(t, reader.closed)
}
