package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/api/metrics"
	"github.com/Zulfatok/mael/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher routes inbound messages to a fixed set of workers using
// consistent hashing on the recipient address, guaranteeing per-alias
// ingestion ordering.
type Dispatcher struct {
	workers []chan ports.IngestInput
	inbox   ports.InboxService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, inbox ports.InboxService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.IngestInput, numWorkers),
		inbox:   inbox,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.IngestInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a message to the worker responsible for its recipient.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(in ports.IngestInput) {
	idx := d.shardIndex(in.Recipient)
	d.workers[idx] <- in
	metrics.IngestQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.IngestInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			if err := d.inbox.Ingest(ctx, in); err != nil {
				metrics.MessagesIngestedTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("recipient", in.Recipient).
					Int("worker_id", id).
					Msg("message ingestion failed")
			} else {
				metrics.MessagesIngestedTotal.WithLabelValues("ok").Inc()
			}
			metrics.IngestQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
