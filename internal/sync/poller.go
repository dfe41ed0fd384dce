package sync

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/clubhub/internal/backend"
	"github.com/nhle/clubhub/internal/logger"
	"github.com/nhle/clubhub/internal/metrics"
	"github.com/nhle/clubhub/internal/model"
)

// PollState represents the current state of the feed poller.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
	PollError
)

func (s PollState) String() string {
	switch s {
	case PollRunning:
		return "syncing"
	case PollError:
		return "error"
	default:
		return "idle"
	}
}

// PollStatus is a snapshot of the poller for display.
type PollStatus struct {
	State    PollState
	LastPoll time.Time
	Error    error
	Skipped  int
}

// FeedResultMsg is a tea.Msg sent when a pipeline run completes.
type FeedResultMsg struct {
	RunID         string
	Notifications []model.Notification
	Err           error
	AuthError     *AuthErrorMsg
	// NewCount is the number of unread notifications not present in the
	// previous successful run.
	NewCount int
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the session.
type AuthErrorMsg struct {
	Message string
}

// Lister runs one pass of the notification pipeline.
type Lister interface {
	List(ctx context.Context) ([]model.Notification, error)
}

// Options tunes a Poller. Zero values fall back to defaults.
type Options struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Logger       logger.Logger
	Metrics      *metrics.Pipeline
}

const (
	defaultInterval     = 30 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

// Poller periodically runs the notification pipeline in the background.
// At most one run is in flight; ticks and refreshes that arrive while a
// run is in progress are skipped.
type Poller struct {
	lister       Lister
	interval     time.Duration
	fetchTimeout time.Duration
	log          logger.Logger
	metrics      *metrics.Pipeline

	resultCh  chan FeedResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	inFlight  atomic.Bool
	wg        gosync.WaitGroup

	mu      gosync.Mutex
	running bool
	status  PollStatus
	seen    map[string]bool
}

// New creates a Poller over lister.
func New(lister Lister, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewPipeline()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		lister:       lister,
		interval:     opts.Interval,
		fetchTimeout: opts.FetchTimeout,
		log:          opts.Logger.WithFields(map[string]interface{}{"component": "poller"}),
		metrics:      opts.Metrics,
		resultCh:     make(chan FeedResultMsg, 16),
		triggerCh:    make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the polling goroutine and returns a tea.Cmd that
// delivers the first FeedResultMsg.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop()

	return p.waitForResult()
}

// Stop halts polling and cancels an in-flight run.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.cancel()
	p.wg.Wait()
}

// Refresh requests an immediate run. It is a no-op while a run is in
// flight or another refresh is already queued.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the current poller status.
func (p *Poller) Status() PollStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial fetch right away.
	p.tryRun("start")

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tryRun("tick")
		case <-p.triggerCh:
			p.tryRun("refresh")
		}
	}
}

// tryRun starts a run unless one is already in flight.
func (p *Poller) tryRun(reason string) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.PollsSkipped.Inc()
		p.mu.Lock()
		p.status.Skipped++
		p.mu.Unlock()
		p.log.Debug("poll skipped, previous run still in flight", map[string]interface{}{"reason": reason})
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.sendResult(p.RunOnce(p.ctx))
	}()
}

// RunOnce performs a single pipeline run synchronously and returns its
// result. It updates the poller status but does not check for overlap.
func (p *Poller) RunOnce(ctx context.Context) FeedResultMsg {
	runID := uuid.NewString()
	log := p.log.WithFields(map[string]interface{}{"run_id": runID})

	p.setStatus(PollRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	start := time.Now()
	list, err := p.lister.List(ctx)
	if err != nil {
		p.setStatus(PollError, err)
		log.WithError(err).Warn("pipeline run failed", nil)

		msg := FeedResultMsg{RunID: runID, Notifications: list, Err: err}
		if backend.IsAuthError(err) {
			msg.AuthError = &AuthErrorMsg{
				Message: "Session expired or invalid. Press 'c' to sign in again.",
			}
		}
		return msg
	}

	newCount := p.countNew(list)
	p.setStatus(PollIdle, nil)
	log.Debug("pipeline run finished", map[string]interface{}{
		"notifications": len(list),
		"new":           newCount,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})

	return FeedResultMsg{RunID: runID, Notifications: list, NewCount: newCount}
}

// countNew compares list with the previous successful run. The first run
// reports zero.
func (p *Poller) countNew(list []model.Notification) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]bool, len(list))
	count := 0
	for _, n := range list {
		current[n.ID] = true
		if p.seen != nil && !p.seen[n.ID] && !n.Read {
			count++
		}
	}
	p.seen = current
	return count
}

func (p *Poller) setStatus(state PollState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == PollIdle && err == nil {
		p.status.LastPoll = time.Now()
	}
}

// sendResult sends a FeedResultMsg without blocking.
func (p *Poller) sendResult(msg FeedResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		p.log.Warn("result channel full, dropping run result", map[string]interface{}{"run_id": msg.RunID})
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-p.resultCh
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next run result.
// Call it after handling a FeedResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// Results exposes the result channel for consumers outside Bubble Tea.
func (p *Poller) Results() <-chan FeedResultMsg {
	return p.resultCh
}
