package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docvault/internal/blobstore"
	"docvault/internal/domain/repositories"
)

// Config controls the extraction worker pool.
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration // bound on one job end to end, independent of the HTTP timeout
	MaxRetries int           // recognition retries per job; 0 = fire and forget
}

// Pipeline runs extraction jobs on a pool of workers fed by a buffered
// channel. Jobs are single-attempt and not persisted: a job lost to a
// restart simply leaves the node without extracted text.
type Pipeline struct {
	cfg    Config
	queue  chan string
	worker *Worker
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewPipeline(cfg Config, repo repositories.NodeRepository, blobs blobstore.Store, client *Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		queue:  make(chan string, cfg.QueueSize),
		worker: NewWorker(repo, blobs, client, cfg, logger),
		logger: logger,
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for range p.cfg.Workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case nodeID, ok := <-p.queue:
					if !ok {
						return
					}
					p.worker.Process(workerCtx, nodeID)
				}
			}
		}()
	}
}

// Stop gracefully shuts down the pipeline. The stopped flag is flipped under
// the same mutex that guards Submit's send, so the queue is only closed once
// no sender can reach it; a Submit racing a shutdown gets an error, never a
// panic.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Submit queues an extraction job without blocking the caller. After Stop it
// reports an error; the ingestion path logs it and leaves the node without
// extracted text.
func (p *Pipeline) Submit(nodeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return fmt.Errorf("extraction pipeline is stopped")
	}

	select {
	case p.queue <- nodeID:
		return nil
	default:
		return fmt.Errorf("extraction queue is full (%d)", p.cfg.QueueSize)
	}
}

// QueueDepth returns current queue depth.
func (p *Pipeline) QueueDepth() int {
	return len(p.queue)
}
