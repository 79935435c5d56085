// Package service owns the board state and wires the roster source, cache,
// ranking pipeline and event loop behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/attendboard/internal/adapters/mq/queue"
	"github.com/okian/attendboard/internal/adapters/mq/worker"
	"github.com/okian/attendboard/internal/adapters/repository"
	"github.com/okian/attendboard/internal/adapters/sheet"
	"github.com/okian/attendboard/internal/domain/columns"
	"github.com/okian/attendboard/internal/domain/dedupe"
	"github.com/okian/attendboard/internal/domain/leaderboard"
	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/paging"
	"github.com/okian/attendboard/internal/domain/roster"
	"github.com/okian/attendboard/internal/domain/term"
	"github.com/okian/attendboard/internal/domain/types"
	"github.com/okian/attendboard/pkg/logger"
	"github.com/okian/attendboard/pkg/metrics"
)

const (
	genericFailure = "Failed to load data. Check the configuration and sharing settings."
	setupHint      = "Set LEADERBOARD_SHEET_ID to the id between /d/ and /edit in the sheet URL and share the sheet as viewable."
)

// message is what flows through the event loop: a user event or the
// completion of a fetch.
type message struct {
	event   model.Event
	seq     uint64
	fetched *fetchResult
}

type fetchResult struct {
	generation uint64
	refreshID  string
	term       string
	entries    []model.Entry
	fetchedAt  time.Time
	took       time.Duration
	err        error
}

// boardState is only touched by the event loop (and by Start before the
// loop runs).
type boardState struct {
	term      string
	mode      model.Mode
	query     string
	pager     *paging.Pager
	loading   bool
	errMsg    string
	lastCount int
	applied   uint64
}

// Service implements the API dependencies for the leaderboard.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	source  sheet.Source
	store   repository.Store
	board   *leaderboard.Board
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue[message]
	loop    *worker.Loop[message]

	// Configuration
	labels     columns.Labels
	title      string
	startYear  int
	setupErr   error
	queueSize  int
	dedupeSize int
	now        func() time.Time

	// State
	st         boardState
	generation atomic.Uint64
	version    atomic.Uint64
	view       atomic.Pointer[types.View]

	// submitMu keeps sequence numbers in queue order.
	submitMu sync.Mutex
	seq      uint64

	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
	fetches sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Without WithSource it behaves as if the data
// source were not configured.
func New(opts ...Option) *Service {
	s := &Service{
		labels:     columns.Labels{}.WithDefaults(),
		queueSize:  1024,
		dedupeSize: dedupe.DefaultCapacity,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewTermStore()
	}
	if s.board == nil {
		s.board = leaderboard.New()
	}
	if s.source == nil && s.setupErr == nil {
		s.setupErr = errors.New("no data source")
	}
	return s
}

// Start initialises the board on the current term, starts the first load
// and runs the event loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.deduper = dedupe.New(dedupe.WithCapacity(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue[message](eventqueue.WithCapacity(s.queueSize))
	s.loop = worker.New[message](s.queue, worker.HandlerFunc[message](s.handle),
		worker.WithName("board_loop"),
		worker.WithLogger(s.logger.Named("board_loop")),
	)

	s.st = boardState{
		term:  term.Current(s.now()).Key(),
		mode:  model.ModeBase,
		pager: paging.New(),
	}

	if s.setupErr != nil {
		s.logger.Warn(ctx, "data source not configured, serving setup hint", logger.Error(s.setupErr))
	}
	s.load(ctx, false)

	go s.loop.Run(s.runCtx)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("term", s.st.term),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop shuts the loop down and waits for fetches in flight.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(ctx, worker.ShutdownTimeout)
	defer cancel()
	if err := s.loop.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "event loop did not stop cleanly", logger.Error(err))
	}
	_ = s.queue.Close()
	s.fetches.Wait()

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Submit validates e and queues it for the event loop. A replayed event id
// is acknowledged as a duplicate and not applied again.
func (s *Service) Submit(ctx context.Context, e model.Event) (types.Receipt, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.Receipt{}, model.ErrNotStarted
	}

	if err := s.validate(e); err != nil {
		metrics.RecordEventRejected()
		return types.Receipt{}, err
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.TS.IsZero() {
		e.TS = s.now()
	}

	receipt := types.Receipt{EventID: e.EventID, Version: s.version.Load()}
	if s.deduper.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event skipped", logger.String("eventID", e.EventID))
		receipt.Duplicate = true
		return receipt, nil
	}

	s.submitMu.Lock()
	s.seq++
	receipt.Seq = s.seq
	ok := s.queue.Enqueue(ctx, message{event: e, seq: receipt.Seq})
	s.submitMu.Unlock()
	if !ok {
		s.deduper.Unrecord(ctx, e.EventID)
		metrics.RecordEventRejected()
		return types.Receipt{}, model.ErrBackpressure
	}
	return receipt, nil
}

func (s *Service) validate(e model.Event) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown type %q", model.ErrInvalidEvent, e.Kind)
	}
	switch e.Kind {
	case model.EventSetMode:
		if _, err := model.ParseMode(e.Value); err != nil {
			return fmt.Errorf("%w: %w", model.ErrInvalidEvent, err)
		}
	case model.EventSelectPage:
		if _, err := strconv.Atoi(e.Value); err != nil {
			return fmt.Errorf("%w: page %q is not a number", model.ErrInvalidEvent, e.Value)
		}
	case model.EventSelectTerm:
		t, err := term.Parse(e.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrInvalidEvent, err)
		}
		if !s.offered(t) {
			return fmt.Errorf("%w: term %s is not offered", model.ErrInvalidEvent, t)
		}
	}
	return nil
}

func (s *Service) terms() []term.Term {
	now := s.now()
	start := s.startYear
	if start == 0 {
		start = term.Current(now).Year
	}
	return term.List(start, now)
}

func (s *Service) offered(t term.Term) bool {
	for _, o := range s.terms() {
		if o == t {
			return true
		}
	}
	return false
}

// handle runs on the event loop.
func (s *Service) handle(ctx context.Context, m message) error {
	if m.fetched != nil {
		s.complete(ctx, m.fetched)
		return nil
	}

	s.st.applied = m.seq
	if err := s.apply(ctx, m.event); err != nil {
		s.publish(ctx)
		return err
	}
	metrics.RecordEventProcessed(string(m.event.Kind))
	return nil
}

func (s *Service) apply(ctx context.Context, e model.Event) error {
	switch e.Kind {
	case model.EventSearch:
		s.st.query = e.Value
		s.publish(ctx)
	case model.EventToggleMode:
		s.st.mode = s.st.mode.Toggle()
		s.publish(ctx)
	case model.EventSetMode:
		mode, err := model.ParseMode(e.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrInvalidEvent, err)
		}
		s.st.mode = mode
		s.publish(ctx)
	case model.EventSelectPage:
		n, err := strconv.Atoi(e.Value)
		if err != nil {
			return fmt.Errorf("%w: page %q", model.ErrInvalidEvent, e.Value)
		}
		s.st.pager.Select(n, s.st.lastCount)
		s.publish(ctx)
	case model.EventSelectTerm:
		t, err := term.Parse(e.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrInvalidEvent, err)
		}
		if t.Key() == s.st.term {
			s.publish(ctx)
			break
		}
		s.st.term = t.Key()
		s.st.pager.Reset()
		s.store.Invalidate(ctx, s.st.term)
		s.load(ctx, true)
	case model.EventRefresh:
		s.load(ctx, true)
	default:
		return fmt.Errorf("%w: unknown type %q", model.ErrInvalidEvent, e.Kind)
	}
	return nil
}

// load shows the cached roster for the selected term or starts a fetch.
// force skips the cache.
func (s *Service) load(ctx context.Context, force bool) {
	if s.setupErr != nil {
		s.publish(ctx)
		return
	}
	if !force {
		if _, err := s.store.Get(ctx, s.st.term); err == nil {
			s.st.loading = false
			s.st.errMsg = ""
			s.publish(ctx)
			return
		}
	}

	gen := s.generation.Add(1)
	refreshID := uuid.NewString()
	s.st.loading = true
	s.st.errMsg = ""
	s.publish(ctx)

	s.logger.Debug(ctx, "fetching roster",
		logger.String("refreshID", refreshID),
		logger.String("term", s.st.term),
		logger.Uint64("generation", gen),
	)
	s.fetches.Add(1)
	go s.fetch(gen, refreshID, s.st.term)
}

// fetch runs off the loop and hands its result back through the queue.
func (s *Service) fetch(gen uint64, refreshID, key string) {
	defer s.fetches.Done()

	start := s.now()
	res := &fetchResult{generation: gen, refreshID: refreshID, term: key}
	table, err := s.source.Fetch(s.runCtx, key)
	if err == nil {
		var idx columns.Index
		if idx, err = columns.Resolve(table.Columns, s.labels); err == nil {
			res.entries = roster.Build(table, idx)
		}
	}
	res.err = err
	res.fetchedAt = s.now()
	res.took = res.fetchedAt.Sub(start)

	if err := s.queue.EnqueueWait(s.runCtx, message{fetched: res}); err != nil {
		s.logger.Debug(s.runCtx, "fetch result dropped", logger.String("refreshID", refreshID), logger.Error(err))
	}
}

// complete applies a fetch result. It is the single error boundary of a
// refresh: a failure clears the rows and shows one message.
func (s *Service) complete(ctx context.Context, r *fetchResult) {
	if r.generation != s.generation.Load() {
		metrics.RecordStaleDiscarded()
		s.logger.Debug(ctx, "discarding stale fetch result",
			logger.String("refreshID", r.refreshID),
			logger.Uint64("generation", r.generation),
		)
		return
	}
	s.st.loading = false

	if r.err != nil {
		s.st.errMsg = s.failureMessage(r.term, r.err)
		metrics.RecordRefresh("error")
		metrics.RecordErrorByComponent("service", "refresh")
		s.logger.Warn(ctx, "refresh failed",
			logger.String("refreshID", r.refreshID),
			logger.String("term", r.term),
			logger.Error(r.err),
		)
		s.publish(ctx)
		return
	}

	if err := s.store.Put(ctx, repository.Roster{Term: r.term, Entries: r.entries, FetchedAt: r.fetchedAt}); err != nil {
		s.st.errMsg = genericFailure
		metrics.RecordRefresh("error")
		s.logger.Error(ctx, "caching roster failed", logger.Error(err))
		s.publish(ctx)
		return
	}
	s.st.errMsg = ""
	metrics.RecordRefresh("ok")
	metrics.UpdateLastRefresh(r.fetchedAt)
	s.logger.Info(ctx, "roster refreshed",
		logger.String("refreshID", r.refreshID),
		logger.String("term", r.term),
		logger.Int("entries", len(r.entries)),
		logger.Duration("took", r.took),
	)
	s.publish(ctx)
}

func (s *Service) failureMessage(key string, err error) string {
	if errors.Is(err, sheet.ErrFetch) && key == term.Current(s.now()).Key() {
		return fmt.Sprintf("No data for term %s yet. Check back once it is published.", key)
	}
	return genericFailure
}

// publish recomputes the view from the cached roster and swaps it in whole.
func (s *Service) publish(ctx context.Context) {
	st := leaderboard.State{Mode: s.st.mode, Query: s.st.query, Pager: s.st.pager}
	v := &types.View{
		Title:   s.title,
		Term:    s.st.term,
		Applied: s.st.applied,
		Loading: s.st.loading,
		Error:   s.st.errMsg,
	}
	for _, t := range s.terms() {
		v.Terms = append(v.Terms, types.TermOption{Key: t.Key(), Selected: t.Key() == s.st.term})
	}

	switch {
	case s.setupErr != nil:
		v.SetupHint = fmt.Sprintf("%v. %s", s.setupErr, setupHint)
		s.board.Clear(v, st)
		s.st.lastCount = 0
	case s.st.errMsg != "":
		s.board.Clear(v, st)
		s.st.lastCount = 0
	default:
		var entries []model.Entry
		if r, err := s.store.Get(ctx, s.st.term); err == nil {
			entries = r.Entries
			fetched := r.FetchedAt
			v.UpdatedAt = &fetched
		}
		start := time.Now()
		res := s.board.Compose(entries, st)
		metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)
		s.board.Fill(v, res, st)
		s.st.lastCount = len(res.Filtered)
	}

	v.Version = s.version.Add(1)
	s.view.Store(v)
	metrics.RecordViewPublished(v.Count, v.Marker != nil)
}

// View returns the latest published view. It must not be modified.
func (s *Service) View() *types.View {
	return s.view.Load()
}

// Terms returns the selectable terms with the current one marked.
func (s *Service) Terms() []types.TermOption {
	if v := s.view.Load(); v != nil {
		return v.Terms
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"configured": s.setupErr == nil,
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.queue.Len()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["cachedTerms"] = s.store.Terms(ctx)
	stats["generation"] = s.generation.Load()
	if v := s.view.Load(); v != nil {
		stats["version"] = v.Version
		stats["term"] = v.Term
		stats["mode"] = v.Mode
		stats["entries"] = v.Count
		stats["loading"] = v.Loading
	}
	return stats
}
