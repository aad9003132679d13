package events

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Writer is the interface to be implemented by the underlying event sink.
type Writer interface {
	Write(ctx context.Context, e Event) error
	Close(ctx context.Context) error
}

// Producer drains hub traffic into a Writer. It buffers pending events so a
// slow writer never blocks the emitting side.
type Producer struct {
	buffer *buffer
	wakeCh chan any
	doneCh chan any
	stopCh chan any
	writer Writer
	unsub  func()
}

func NewProducer(w Writer) *Producer {
	p := &Producer{
		buffer: newBuffer(),
		wakeCh: make(chan any, 1),
		doneCh: make(chan any),
		stopCh: make(chan any),
		writer: w,
	}
	go p.run()
	return p
}

// Attach connects the producer to the hub as a participant. Everything other
// participants emit flows into the writer.
func (p *Producer) Attach(hub *Hub, id string) {
	ch, unsub := hub.Subscribe(id)
	p.unsub = unsub
	go func() {
		for e := range ch {
			p.Push(e)
		}
	}()
}

func (p *Producer) Push(e Event) {
	p.buffer.PushBack(&message{event: e})
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

func (p *Producer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.unsub != nil {
		p.unsub()
	}

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		close(p.stopCh)
		select {
		case <-p.doneCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	g.Go(func() error {
		return p.writer.Close(closeCtx)
	})
	return g.Wait()
}

func (p *Producer) run() {
	defer close(p.doneCh)
	for {
		p.drain()
		select {
		case <-p.stopCh:
			p.drain()
			return
		case <-p.wakeCh:
		}
	}
}

func (p *Producer) drain() {
	for {
		msg := p.buffer.Pop()
		if msg == nil {
			return
		}
		// best effort, the writer logs its own failures
		_ = p.writer.Write(context.Background(), msg.event)
	}
}
