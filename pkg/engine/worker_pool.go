package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/util"
)

// fileJob is one file to be processed by the worker pool.
type fileJob struct {
	Path  string
	JobID int
}

// FileError pairs a file path with the error encountered processing it.
type FileError struct {
	FilePath string
	Error    error
}

// workerPool runs ExtractFile across a bounded set of goroutines: a
// buffered job channel, separate results/errors channels, and an explicit
// FinishSubmitting/Wait lifecycle.
type workerPool struct {
	engine  *Engine
	jobs    chan fileJob
	results chan *keys.FileResult
	errors  chan FileError
	wg      sync.WaitGroup

	numWorkers int
}

func newWorkerPool(e *Engine, expectedJobs int) *workerPool {
	numWorkers := util.GetOptimalPoolSize()
	bufSize := numWorkers * 2
	if expectedJobs > 0 && expectedJobs < bufSize {
		bufSize = expectedJobs
	}
	if bufSize < 1 {
		bufSize = 1
	}
	return &workerPool{
		engine:     e,
		jobs:       make(chan fileJob, bufSize),
		results:    make(chan *keys.FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		numWorkers: numWorkers,
	}
}

func (p *workerPool) Start() {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		code, err := p.engine.fileCache.FetchCode(job.Path, 0, 0)
		if err != nil {
			p.errors <- FileError{FilePath: job.Path, Error: fmt.Errorf("failed to read file: %w", err)}
			continue
		}
		source := []byte(code)

		result, err := p.engine.ExtractFile(job.Path, source)
		if err != nil {
			p.errors <- FileError{FilePath: job.Path, Error: err}
			continue
		}

		p.results <- result
	}
}

// Submit enqueues a job, respecting ctx cancellation while blocked on a
// full jobs channel.
func (p *workerPool) Submit(ctx context.Context, job fileJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

func (p *workerPool) Results() <-chan *keys.FileResult { return p.results }
func (p *workerPool) Errors() <-chan FileError          { return p.errors }

// FinishSubmitting closes the jobs channel so workers exit once drained.
func (p *workerPool) FinishSubmitting() {
	close(p.jobs)
}

// Wait blocks until all workers have exited, then closes the result and
// error channels.
func (p *workerPool) Wait() {
	p.wg.Wait()
	close(p.results)
	close(p.errors)
}

// cacheKey identifies a file's content for the optional result cache: the
// path plus a SHA-256 hash of its source, so a file edited back to
// identical content still hits the cache.
func cacheKey(path string, source []byte) string {
	sum := sha256.Sum256(source)
	return path + "@" + hex.EncodeToString(sum[:])
}
