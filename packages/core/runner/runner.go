package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/document"
	"github.com/abdul-hamid-achik/sendhttp/packages/core/env"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

const (
	// DefaultConcurrency is the default number of calls in flight
	DefaultConcurrency = 5
)

type Config struct {
	// Concurrency bounds the calls in flight
	Concurrency int
	// Rate limits calls per second across the run; zero means unlimited
	Rate float64
	// Repeat sends each document this many times
	Repeat int
	// Defaults fill document settings that are not set
	Defaults http.Settings
}

type Runner struct {
	executor *http.Executor
	resolver *env.Resolver
	config   *Config
	limiter  *rate.Limiter
	logger   *zap.Logger
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(executor *http.Executor, resolver *env.Resolver, cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{Defaults: http.DefaultSettings()}
	}
	if resolver == nil {
		resolver = env.NewResolver()
	}

	r := &Runner{
		executor: executor,
		resolver: resolver,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type Result struct {
	Document  *document.Document
	Iteration int
	Request   *http.Request
	Response  *http.Response
	Error     error
	Started   time.Time
}

// Passed reports whether the call produced a response.
func (r *Result) Passed() bool {
	return r.Error == nil && r.Response != nil
}

// Run sends every document Repeat times. Results are in input order, each
// document's iterations adjacent. When ctx is cancelled, calls not yet
// started fail with ctx's error.
func (r *Runner) Run(ctx context.Context, docs []*document.Document) ([]*Result, Summary) {
	repeat := r.config.Repeat
	if repeat <= 0 {
		repeat = 1
	}
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Result, 0, len(docs)*repeat)
	for _, d := range docs {
		req := document.Build(d, r.resolver, r.config.Defaults)
		for i := 0; i < repeat; i++ {
			results = append(results, &Result{Document: d, Iteration: i + 1, Request: req})
		}
	}

	stats := NewStats()
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for _, res := range results {
		select {
		case sem <- struct{}{}: // acquire semaphore
		case <-ctx.Done():
			res.Error = ctx.Err()
			stats.Record(nil, res.Error)
			continue
		}

		wg.Add(1)
		go func(res *Result) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			r.runOne(ctx, res)
			stats.Record(res.Response, res.Error)
		}(res)
	}

	wg.Wait()
	return results, stats.Summary()
}

func (r *Runner) runOne(ctx context.Context, res *Result) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			res.Error = err
			return
		}
	}

	res.Started = time.Now()
	res.Response, res.Error = r.executor.Execute(ctx, res.Request)

	r.logger.Debug("document sent",
		zap.String("document", logName(res)),
		zap.Int("iteration", res.Iteration),
		zap.Bool("ok", res.Error == nil),
	)
}

// logName identifies a result in logs without the raw URL, which may carry
// credentials.
func logName(res *Result) string {
	if res.Document.Name != "" {
		return res.Document.Name
	}
	return res.Request.Method + " " + http.RedactURL(res.Request.URL)
}
