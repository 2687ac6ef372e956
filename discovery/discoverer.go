// Package discovery runs one crawl over a source registry and turns the
// fetched pages into ranked funding opportunities.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/oppscout/extract"
	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/scoring"
	"github.com/use-agent/oppscout/scraper"
	"github.com/use-agent/oppscout/vocab"
)

// MinProbability is the final gate: only records scoring strictly above it
// are returned.
const MinProbability = 0.3

// PageFetcher retrieves one endpoint. *scraper.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, target string) (*scraper.Page, error)
}

// Limiter paces the requests of one run. *scraper.RequestLimiter implements it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Discoverer crawls a registry of sources. A Discoverer holds no per-run
// state; every call to Run gets its own run ID and limiter, so concurrent
// runs do not share counters.
type Discoverer struct {
	fetcher    PageFetcher
	engine     *extract.Engine
	scorer     *scoring.Scorer
	newLimiter func() Limiter
	newRunID   func() (string, error)
	now        func() time.Time
	logger     *slog.Logger

	// concurrency caps how many sources are crawled at once; 0 means one
	// goroutine per source.
	concurrency int
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithVocabulary replaces the built-in keyword lists.
func WithVocabulary(v vocab.Vocabulary) Option {
	return func(d *Discoverer) {
		d.engine = extract.NewEngine(v)
		d.scorer = scoring.NewScorer(v)
	}
}

// WithLimiterConfig sets the pacing of the limiter created for each run.
func WithLimiterConfig(cfg scraper.LimiterConfig) Option {
	return func(d *Discoverer) {
		d.newLimiter = func() Limiter { return scraper.NewRequestLimiter(cfg) }
	}
}

// WithLimiterFactory replaces limiter construction entirely.
func WithLimiterFactory(fn func() Limiter) Option {
	return func(d *Discoverer) {
		d.newLimiter = fn
	}
}

// WithLogger sets the logger used for run, source and endpoint events.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// WithClock replaces time.Now for the run timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Discoverer) {
		d.now = now
	}
}

// WithRunIDs replaces the random run ID generator.
func WithRunIDs(fn func() (string, error)) Option {
	return func(d *Discoverer) {
		d.newRunID = fn
	}
}

// WithConcurrency caps the number of sources crawled at the same time.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New creates a Discoverer that fetches through fetcher.
func New(fetcher PageFetcher, opts ...Option) *Discoverer {
	v := vocab.Default()
	d := &Discoverer{
		fetcher: fetcher,
		engine:  extract.NewEngine(v),
		scorer:  scoring.NewScorer(v),
		newLimiter: func() Limiter {
			return scraper.NewRequestLimiter(scraper.DefaultLimiterConfig())
		},
		newRunID: randomRunID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// SourceReport summarises what one source contributed to a run.
type SourceReport struct {
	ID        string `json:"id"`
	Endpoints int    `json:"endpoints"`
	Failed    int    `json:"failed"`
	Records   int    `json:"records"`
}

// Result is the outcome of one run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Sources   []SourceReport

	// Opportunities is never nil.
	Opportunities []models.Opportunity
}

// Discover crawls every enabled source and returns the ranked opportunities.
// It never fails: any error ends up as fewer (possibly zero) records.
func (d *Discoverer) Discover(ctx context.Context, registry []models.Source) []models.Opportunity {
	return d.Run(ctx, registry).Opportunities
}

// run is the state shared by the source tasks of one call.
type run struct {
	id        string
	startedAt time.Time
	limiter   Limiter
	logger    *slog.Logger
}

// Run is Discover with run metadata.
func (d *Discoverer) Run(ctx context.Context, registry []models.Source) (res Result) {
	res.Opportunities = []models.Opportunity{}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("discovery run panicked",
				"run_id", res.RunID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			res.Opportunities = []models.Opportunity{}
		}
	}()

	rn, err := d.startRun()
	if err != nil {
		d.logger.Error("discovery run setup failed", "error", err)
		return res
	}
	res.RunID = rn.id
	res.StartedAt = rn.startedAt

	sources := make([]models.Source, 0, len(registry))
	for _, src := range registry {
		if !src.Enabled() {
			rn.logger.Debug("source disabled, skipping", "source", src.ID)
			continue
		}
		sources = append(sources, src)
	}
	rn.logger.Info("discovery run started", "sources", len(sources))

	// One slot per source; tasks only write their own slot.
	slots := make([][]models.Opportunity, len(sources))
	reports := make([]SourceReport, len(sources))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, src := range sources {
		reports[i] = SourceReport{ID: src.ID, Endpoints: len(src.Endpoints)}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					rn.logger.Error("source crawl panicked",
						"source", src.ID,
						"panic", fmt.Sprint(r),
					)
					slots[i] = nil
				}
			}()
			slots[i] = d.crawlSource(ctx, rn, src, &reports[i])
			return nil
		})
	}
	_ = g.Wait()

	var all []models.Opportunity
	for _, recs := range slots {
		all = append(all, recs...)
	}
	for i := range reports {
		reports[i].Records = len(slots[i])
	}

	res.Sources = reports
	res.Opportunities = rank(all)
	res.Duration = d.now().Sub(rn.startedAt)

	rn.logger.Info("discovery run finished",
		"opportunities", len(res.Opportunities),
		"candidates_kept", len(all),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (d *Discoverer) startRun() (*run, error) {
	if d.fetcher == nil {
		return nil, fmt.Errorf("discovery: no fetcher configured")
	}
	id, err := d.newRunID()
	if err != nil {
		return nil, fmt.Errorf("discovery: generate run id: %w", err)
	}
	limiter := d.newLimiter()
	if limiter == nil {
		return nil, fmt.Errorf("discovery: no rate limiter for run %s", id)
	}
	return &run{
		id:        id,
		startedAt: d.now().UTC(),
		limiter:   limiter,
		logger:    d.logger.With("run_id", id),
	}, nil
}

// crawlSource visits the endpoints of src one after another. Endpoint
// failures are logged and skipped.
func (d *Discoverer) crawlSource(ctx context.Context, rn *run, src models.Source, rep *SourceReport) []models.Opportunity {
	var out []models.Opportunity
	for i, endpoint := range src.Endpoints {
		target, err := src.EndpointURL(endpoint)
		if err != nil {
			rn.logger.Warn("invalid endpoint", "source", src.ID, "endpoint", endpoint, "error", err)
			rep.Failed++
			continue
		}

		if err := rn.limiter.Wait(ctx); err != nil {
			rn.logger.Warn("source crawl interrupted", "source", src.ID, "error", err)
			rep.Failed += len(src.Endpoints) - i
			return out
		}

		page, err := d.fetcher.Fetch(ctx, target)
		if err != nil {
			rn.logger.Warn("fetch failed",
				"source", src.ID,
				"url", target,
				"kind", models.FetchErrorKindOf(err),
				"error", err,
			)
			rep.Failed++
			continue
		}

		recs := d.analyze(rn, src, page)
		rn.logger.Debug("endpoint analysed", "source", src.ID, "url", target, "records", len(recs))
		out = append(out, recs...)
	}
	return out
}

// rank keeps records above MinProbability and orders them by probability,
// highest first. Equal scores keep their crawl order.
func rank(recs []models.Opportunity) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(recs))
	for _, r := range recs {
		if r.SuccessProbability > MinProbability {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuccessProbability > out[j].SuccessProbability
	})
	return out
}

func randomRunID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
