package measure

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/pagefit/internal/fingerprint"
	"github.com/jackzampolin/pagefit/internal/types"
)

// ErrNoSections is returned by discovery when the document has no rendered sections yet.
var ErrNoSections = errors.New("no sections found")

// State is the orchestrator's position in a measurement pass.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateDiscovering
	StateMeasuring
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateDiscovering:
		return "discovering"
	case StateMeasuring:
		return "measuring"
	case StatePublished:
		return "published"
	default:
		return "unknown"
	}
}

// inFlight reports whether a pass is running.
func (s State) inFlight() bool {
	return s == StateDiscovering || s == StateMeasuring || s == StatePublished
}

// Locator finds the ordered sections of the currently active document.
type Locator interface {
	Locate(ctx context.Context) ([]types.Section, error)
}

// GeometryNotifier is implemented by locators that can report when a
// section's layout geometry changes (viewport resize, late font load).
type GeometryNotifier interface {
	OnGeometryChanged(sectionID string, fn func()) (cancel func())
}

// Options configures pass timing.
type Options struct {
	// Debounce is the quiet period that coalesces bursts of changes.
	Debounce time.Duration
	// Throttle is the minimum interval between the starts of two passes.
	Throttle time.Duration
	// RetryDelay is the wait before retrying discovery.
	RetryDelay time.Duration
	// DiscoveryRetries is how many times discovery is retried.
	DiscoveryRetries int
	Logger           *slog.Logger
}

// DefaultOptions returns the reference timings.
func DefaultOptions() Options {
	return Options{
		Debounce:         200 * time.Millisecond,
		Throttle:         500 * time.Millisecond,
		RetryDelay:       1000 * time.Millisecond,
		DiscoveryRetries: 1,
	}
}

// Stats counts orchestrator activity.
type Stats struct {
	State           string    `json:"state" yaml:"state"`
	PassesStarted   int64     `json:"passes_started" yaml:"passes_started"`
	PassesPublished int64     `json:"passes_published" yaml:"passes_published"`
	PassesDiscarded int64     `json:"passes_discarded" yaml:"passes_discarded"`
	PartialUpdates  int64     `json:"partial_updates" yaml:"partial_updates"`
	Unchanged       int64     `json:"unchanged" yaml:"unchanged"`
	Dropped         int64     `json:"dropped" yaml:"dropped"`
	Throttled       int64     `json:"throttled" yaml:"throttled"`
	EmptyDiscovery  int64     `json:"empty_discovery" yaml:"empty_discovery"`
	LastPassID      string    `json:"last_pass_id,omitempty" yaml:"last_pass_id,omitempty"`
	LastPublishedAt time.Time `json:"last_published_at,omitempty" yaml:"last_published_at,omitempty"`
	Sections        int       `json:"sections" yaml:"sections"`
}

type request struct {
	fp      fingerprint.ID
	locator Locator
}

// Orchestrator owns the published measurement list. Passes are
// single-flight: a change arriving while a pass is discovering or measuring
// is dropped, and the pass result is discarded on publish if the document
// moved on in the meantime.
type Orchestrator struct {
	measurer *Measurer
	opts     Options
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu            sync.Mutex
	state         State
	timer         *time.Timer
	gen           uint64
	pending       *request
	latest        *request
	lastPublished fingerprint.ID
	hasPublished  bool
	forceNext     bool
	measurements  []types.Measurement
	sections      []types.Section
	listeners     []func([]types.Measurement)
	cancelGeom    []func()
	stats         Stats
	closed        bool

	// work serializes full passes with partial updates.
	work sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(m *Measurer, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DiscoveryRetries < 0 {
		opts.DiscoveryRetries = 0
	}
	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		measurer: m,
		opts:     opts,
		logger:   opts.Logger,
		limiter:  rate.NewLimiter(limit, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnDocumentChanged reports that the document content changed. doc is the
// current content, used for change detection; loc discovers the rendered
// sections when the pass runs. The call never blocks on measurement.
func (o *Orchestrator) OnDocumentChanged(doc []types.Section, loc Locator) {
	req := &request{fp: DocumentFingerprint(doc), locator: loc}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.latest = req

	if o.state.inFlight() {
		o.stats.Dropped++
		o.logger.Debug("pass in flight, change dropped", "state", o.state.String(), "fingerprint", req.fp.String())
		return
	}

	if o.hasPublished && !o.forceNext && req.fp == o.lastPublished {
		if o.state == StateDebouncing {
			o.stopTimerLocked()
			o.pending = nil
			o.setStateLocked(StateIdle)
		}
		o.stats.Unchanged++
		return
	}

	o.pending = req
	if o.state != StateDebouncing {
		o.setStateLocked(StateDebouncing)
	}
	o.armLocked(o.opts.Debounce)
}

// Refresh drops every cached height and re-measures the latest document.
// Used when page geometry or typography changes.
func (o *Orchestrator) Refresh() {
	o.measurer.Cache().Purge()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.latest == nil {
		return
	}
	o.forceNext = true
	if o.state.inFlight() {
		return
	}
	o.pending = o.latest
	o.setStateLocked(StateDebouncing)
	o.armLocked(0)
}

// Subscribe registers fn to receive every published or patched measurement list.
func (o *Orchestrator) Subscribe(fn func([]types.Measurement)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Measurements returns a copy of the published measurement list.
func (o *Orchestrator) Measurements() []types.Measurement {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.measurements)
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Stats returns a snapshot of the counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.stats
	st.State = o.state.String()
	st.Sections = len(o.measurements)
	return st
}

// Close stops pending timers, cancels geometry subscriptions and waits for
// any running pass to finish.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stopTimerLocked()
	cancels := o.cancelGeom
	o.cancelGeom = nil
	o.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) setStateLocked(s State) {
	if o.state != s {
		o.logger.Debug("measurement state", "from", o.state.String(), "to", s.String())
	}
	o.state = s
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.setStateLocked(s)
	o.mu.Unlock()
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.gen++
}

// armLocked (re)starts the debounce timer. A fire from an older timer is
// ignored through the generation counter.
func (o *Orchestrator) armLocked(d time.Duration) {
	o.stopTimerLocked()
	gen := o.gen
	o.timer = time.AfterFunc(d, func() { o.fire(gen) })
}

func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if o.closed || gen != o.gen || o.state != StateDebouncing || o.pending == nil {
		o.mu.Unlock()
		return
	}
	if !o.limiter.Allow() {
		r := o.limiter.Reserve()
		wait := r.Delay()
		r.Cancel()
		if wait <= 0 {
			wait = time.Millisecond
		}
		o.stats.Throttled++
		o.logger.Debug("pass throttled", "wait_ms", wait.Milliseconds())
		o.armLocked(wait)
		o.mu.Unlock()
		return
	}

	req := o.pending
	o.pending = nil
	o.timer = nil
	o.forceNext = false
	o.stats.PassesStarted++
	o.setStateLocked(StateDiscovering)
	o.wg.Add(1)
	o.mu.Unlock()

	defer o.wg.Done()
	o.run(req)
}

func (o *Orchestrator) run(req *request) {
	o.work.Lock()
	defer o.work.Unlock()

	passID := uuid.NewString()
	logger := o.logger.With("pass_id", passID)
	start := time.Now()

	sections := o.discover(req.locator, logger)

	o.setState(StateMeasuring)
	ms := make([]types.Measurement, 0, len(sections))
	for _, sec := range sections {
		h, err := o.measurer.Measure(o.ctx, sec)
		if err != nil {
			if o.ctx.Err() != nil {
				o.setState(StateIdle)
				return
			}
			logger.Warn("failed to measure section", "section_id", sec.ID, "error", err)
			h = 0
		}
		ms = append(ms, types.Measurement{
			SectionID: sec.ID,
			Height:    h,
			Content:   sec.Content,
			Type:      sec.Type,
		})
	}

	o.publish(req, passID, sections, ms, logger, time.Since(start))
}

// discover locates sections, retrying a bounded number of times before
// settling for an empty document.
func (o *Orchestrator) discover(loc Locator, logger *slog.Logger) []types.Section {
	if loc == nil {
		return nil
	}
	var found []types.Section
	err := retry.Do(
		func() error {
			secs, err := loc.Locate(o.ctx)
			if err != nil {
				return err
			}
			if len(secs) == 0 {
				return ErrNoSections
			}
			found = secs
			return nil
		},
		retry.Context(o.ctx),
		retry.Attempts(uint(o.opts.DiscoveryRetries+1)),
		retry.Delay(o.opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("sections not ready, retrying discovery", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		o.mu.Lock()
		o.stats.EmptyDiscovery++
		o.mu.Unlock()
		logger.Info("no sections discovered, publishing empty measurement set", "error", err)
		return nil
	}
	return found
}

func (o *Orchestrator) publish(req *request, passID string, sections []types.Section, ms []types.Measurement, logger *slog.Logger, took time.Duration) {
	o.mu.Lock()
	if o.closed {
		o.setStateLocked(StateIdle)
		o.mu.Unlock()
		return
	}
	if o.latest != nil && o.latest.fp != req.fp {
		o.stats.PassesDiscarded++
		logger.Info("document changed during pass, discarding result",
			"started_with", req.fp.String(), "current", o.latest.fp.String())
		o.pending = o.latest
		o.setStateLocked(StateDebouncing)
		o.armLocked(0)
		o.mu.Unlock()
		return
	}

	o.setStateLocked(StatePublished)
	o.measurements = ms
	o.sections = sections
	o.lastPublished = req.fp
	o.hasPublished = true
	o.stats.PassesPublished++
	o.stats.LastPassID = passID
	o.stats.LastPublishedAt = time.Now()
	listeners := slices.Clone(o.listeners)
	oldCancels := o.cancelGeom
	o.cancelGeom = nil
	o.mu.Unlock()

	logger.Info("measurements published", "sections", len(ms), "duration_ms", took.Milliseconds())

	for _, c := range oldCancels {
		c()
	}
	var cancels []func()
	if gn, ok := req.locator.(GeometryNotifier); ok {
		for _, sec := range sections {
			id := sec.ID
			cancels = append(cancels, gn.OnGeometryChanged(id, func() { o.onGeometryChanged(id) }))
		}
	}
	for _, fn := range listeners {
		fn(slices.Clone(ms))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		for _, c := range cancels {
			c()
		}
		o.setStateLocked(StateIdle)
		return
	}
	o.cancelGeom = cancels
	o.setStateLocked(StateIdle)

	// A change that arrived while listeners ran was dropped; pick it up now.
	if o.latest != nil && (o.forceNext || o.latest.fp != o.lastPublished) {
		o.pending = o.latest
		o.setStateLocked(StateDebouncing)
		o.armLocked(0)
	}
}

// onGeometryChanged re-measures one section and patches the published list.
func (o *Orchestrator) onGeometryChanged(sectionID string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		o.work.Lock()
		defer o.work.Unlock()
		o.patch(sectionID)
	}()
}

func (o *Orchestrator) patch(sectionID string) {
	o.mu.Lock()
	idx := slices.IndexFunc(o.sections, func(s types.Section) bool { return s.ID == sectionID })
	if idx < 0 || o.closed {
		o.mu.Unlock()
		return
	}
	sec := o.sections[idx]
	o.mu.Unlock()

	h, err := o.measurer.Remeasure(o.ctx, sec)
	if err != nil {
		o.logger.Warn("failed to re-measure section", "section_id", sectionID, "error", err)
		return
	}

	o.mu.Lock()
	if idx >= len(o.measurements) || o.measurements[idx].SectionID != sectionID {
		o.mu.Unlock()
		return
	}
	if o.measurements[idx].Height == h {
		o.mu.Unlock()
		return
	}
	// Copy on write so lists already handed to listeners stay untouched.
	next := slices.Clone(o.measurements)
	next[idx].Height = h
	o.measurements = next
	o.stats.PartialUpdates++
	listeners := slices.Clone(o.listeners)
	o.mu.Unlock()

	o.logger.Debug("section re-measured after geometry change", "section_id", sectionID, "height", h)
	for _, fn := range listeners {
		fn(slices.Clone(next))
	}
}
