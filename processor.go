package iso8583

import (
	"context"
	"fmt"
	"sync"
)

// Processor provides high-level concurrent unpacking of ISO8583
// messages against a single Registry. Adapted from the teacher's
// Processor (processor.go), retargeted to IsoMessage.
type Processor struct {
	registry     *Registry
	concurrency  int
	errorHandler func(error)
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency sets the maximum number of concurrent goroutines used
// by ProcessBatch and ProcessStream.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		p.concurrency = n
	}
}

// WithErrorHandler sets a callback invoked for every unpack error.
func WithErrorHandler(handler func(error)) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}

// NewProcessor creates a Processor bound to registry.
func NewProcessor(registry *Registry, opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry:    registry,
		concurrency: 4,
		errorHandler: func(err error) {
			fmt.Printf("processor error: %v\n", err)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process unpacks a single raw message. The caller must Release it.
func (p *Processor) Process(data []byte) (*IsoMessage, error) {
	msg := NewIsoMessage(WithRegistry(p.registry))
	if err := msg.Unpack(data); err != nil {
		msg.Release()
		return nil, err
	}
	return msg, nil
}

// ProcessBatch unpacks a slice of raw messages concurrently, bounded by
// p.concurrency, and respects ctx cancellation between dispatches.
func (p *Processor) ProcessBatch(ctx context.Context, dataSlice [][]byte) ([]*IsoMessage, error) {
	results := make([]*IsoMessage, len(dataSlice))
	errs := make([]error, len(dataSlice))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i, data := range dataSlice {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(idx int, msgData []byte) {
			defer wg.Done()
			defer func() { <-semaphore }()

			msg := NewIsoMessage(WithRegistry(p.registry))
			if err := msg.Unpack(msgData); err != nil {
				errs[idx] = err
				if p.errorHandler != nil {
					p.errorHandler(err)
				}
				msg.Release()
				return
			}
			results[idx] = msg
		}(i, data)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ProcessStream concurrently unpacks messages read from input and sends
// the results to output, stopping on ctx cancellation or input close.
func (p *Processor) ProcessStream(ctx context.Context, input <-chan []byte, output chan<- *IsoMessage) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()

		case data, ok := <-input:
			if !ok {
				wg.Wait()
				return nil
			}

			wg.Add(1)
			semaphore <- struct{}{}

			go func(msgData []byte) {
				defer wg.Done()
				defer func() { <-semaphore }()

				msg := NewIsoMessage(WithRegistry(p.registry))
				if err := msg.Unpack(msgData); err != nil {
					if p.errorHandler != nil {
						p.errorHandler(err)
					}
					msg.Release()
					return
				}

				select {
				case output <- msg:
				case <-ctx.Done():
					msg.Release()
				}
			}(data)
		}
	}
}

// Shutdown is a placeholder for future graceful-drain behavior.
func (p *Processor) Shutdown(ctx context.Context) error {
	return nil
}
