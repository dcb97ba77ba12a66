package scans

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/threatdesk/internal/application"
	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
	"github.com/bryanwahyu/threatdesk/internal/domain/alert"
	"github.com/bryanwahyu/threatdesk/internal/domain/profile"
	domain "github.com/bryanwahyu/threatdesk/internal/domain/scans"
	"github.com/bryanwahyu/threatdesk/internal/metrics"
)

// Analyzer never fails; a failed analysis comes back as a fallback Outcome.
type Analyzer interface {
	Analyze(ctx context.Context, input string, category ai.Category) ai.Outcome
}

// State of the console.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

var (
	initialSteps  = []string{"Initializing scanner...", "Bypassing sandbox...", "Connecting to deep-scan DB..."}
	analysisSteps = []string{"Analyzing patterns...", "AI engine checking for anomalies..."}
)

const (
	DefaultProgressDelay = 800 * time.Millisecond
	DefaultSettleDelay   = 500 * time.Millisecond
	DefaultRelayTimeout  = 10 * time.Second
)

// Deps wires a Console. Analyzer, Profiles and History are required.
type Deps struct {
	Analyzer Analyzer
	Relay    alert.Notifier
	Profiles profile.Repository
	History  domain.Log

	Clock   application.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	ProgressDelay time.Duration
	SettleDelay   time.Duration
	RelayTimeout  time.Duration

	// NewID defaults to uuid.NewString.
	NewID func() string
	// RelayErrors receives every failed relay. Defaults to logging.
	RelayErrors func(error)
}

// Report is what one completed submission produced.
type Report struct {
	Result   domain.Result     `json:"result"`
	Analysis ai.SecurityStatus `json:"analysis"`
	Fallback bool              `json:"fallback"`
}

// View is a consistent snapshot for presentation.
type View struct {
	Profile      profile.Profile    `json:"profile"`
	State        State              `json:"state"`
	Steps        []string           `json:"steps"`
	LastAnalysis *ai.SecurityStatus `json:"lastAnalysis"`
	Results      []domain.Result    `json:"results"`
	Stats        domain.Stats       `json:"stats"`
}

// Console owns the operator session: profile, scan history and at most one
// pending analysis. Safe for concurrent use.
type Console struct {
	analyzer Analyzer
	relay    alert.Notifier
	profiles profile.Repository
	history  domain.Log
	clock    application.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics

	progressDelay time.Duration
	settleDelay   time.Duration
	relayTimeout  time.Duration
	newID         func() string
	relayErrors   func(error)

	// persist serialises every memory change that is written through, so
	// the durable records are updated in the same order as memory.
	persist sync.Mutex

	mu      sync.RWMutex
	prof    profile.Profile
	results []domain.Result
	state   State
	steps   []string
	last    *ai.SecurityStatus

	relays sync.WaitGroup
}

// NewConsole loads the profile and the scan log once.
func NewConsole(ctx context.Context, d Deps) *Console {
	c := &Console{
		analyzer:      d.Analyzer,
		relay:         d.Relay,
		profiles:      d.Profiles,
		history:       d.History,
		clock:         d.Clock,
		logger:        d.Logger,
		metrics:       d.Metrics,
		progressDelay: d.ProgressDelay,
		settleDelay:   d.SettleDelay,
		relayTimeout:  d.RelayTimeout,
		newID:         d.NewID,
		relayErrors:   d.RelayErrors,
		state:         StateIdle,
	}
	if c.relay == nil {
		c.relay = alert.Nop{}
	}
	if c.clock == nil {
		c.clock = application.SystemClock{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.relayTimeout <= 0 {
		c.relayTimeout = DefaultRelayTimeout
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.relayErrors == nil {
		c.relayErrors = func(err error) {
			c.logger.Error("alert relay failed", "error", err)
		}
	}

	c.prof = c.profiles.Load(ctx)
	c.results = c.history.Load(ctx)
	if c.results == nil {
		c.results = []domain.Result{}
	}
	return c
}

// Submit runs one analysis of target to completion.
func (c *Console) Submit(ctx context.Context, target string) (rep Report, err error) {
	input := strings.TrimSpace(target)
	if input == "" {
		return Report{}, domain.ErrEmptyTarget
	}

	c.mu.Lock()
	if c.state == StateScanning {
		c.mu.Unlock()
		c.metrics.ScansRejected.Add(1)
		return Report{}, domain.ErrScanInProgress
	}
	c.state = StateScanning
	c.last = nil
	c.steps = append([]string(nil), initialSteps...)
	c.mu.Unlock()

	c.metrics.ScansTotal.Add(1)
	c.metrics.ScansRunning.Add(1)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("scan workflow failed", "panic", r)
			rep, err = Report{}, fmt.Errorf("%w: %v", domain.ErrCritical, r)
		}
		c.mu.Lock()
		c.state = StateIdle
		c.steps = nil
		c.mu.Unlock()
		c.metrics.ScansRunning.Add(-1)
	}()

	if err := application.Sleep(ctx, c.progressDelay); err != nil {
		return Report{}, err
	}
	c.mu.Lock()
	c.steps = append(c.steps, analysisSteps...)
	c.mu.Unlock()

	out := c.analyzer.Analyze(ctx, input, ai.CategoryLink)

	if err := application.Sleep(ctx, c.settleDelay); err != nil {
		return Report{}, err
	}
	// a resolution that arrives after the caller gave up is dropped
	if err := ctx.Err(); err != nil {
		c.logger.Debug("discarding analysis of cancelled scan", "error", err)
		return Report{}, err
	}

	status := out.Status
	res := domain.Result{
		ID:        c.newID(),
		Timestamp: c.clock.Now().Format(domain.TimeLayout),
		Type:      domain.TypeLink,
		Status:    domain.StatusMalicious,
		Analysis:  status.Message,
	}
	if status.IsSafe {
		res.Status = domain.StatusClean
	}

	operator := c.record(context.WithoutCancel(ctx), res, status.Clone())

	c.dispatch(relayMessage(operator, target, status))

	c.logger.Info("scan completed",
		"id", res.ID,
		"status", res.Status,
		"threat_level", status.ThreatLevel,
		"fallback", out.Fallback,
	)
	return Report{Result: res, Analysis: status, Fallback: out.Fallback}, nil
}

// record prepends res to the log and writes the log through. It returns the
// operator name current at that moment.
func (c *Console) record(ctx context.Context, res domain.Result, last ai.SecurityStatus) string {
	c.persist.Lock()
	defer c.persist.Unlock()

	c.mu.Lock()
	c.last = &last
	c.results = append([]domain.Result{res}, c.results...)
	snapshot := append([]domain.Result(nil), c.results...)
	operator := c.prof.Name
	c.mu.Unlock()

	if err := c.history.Save(ctx, snapshot); err != nil {
		c.metrics.PersistFailures.Add(1)
		c.logger.Warn("scan log not persisted", "error", err)
	}
	return operator
}

func relayMessage(operator, input string, s ai.SecurityStatus) string {
	verdict := "THREAT"
	if s.IsSafe {
		verdict = "SAFE"
	}
	return fmt.Sprintf("🎯 *Target Analyzed*\nOperator: %s\nInput: %s\nResult: %s\nLevel: %s",
		operator, input, verdict, s.ThreatLevel)
}

// dispatch relays msg without blocking the caller.
func (c *Console) dispatch(msg string) {
	c.relays.Add(1)
	go func() {
		defer c.relays.Done()
		defer func() {
			if r := recover(); r != nil {
				c.metrics.AlertFailures.Add(1)
				c.relayErrors(fmt.Errorf("relay panicked: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.relayTimeout)
		defer cancel()
		if err := c.relay.Notify(ctx, msg); err != nil {
			c.metrics.AlertFailures.Add(1)
			c.relayErrors(err)
			return
		}
		c.metrics.AlertsSent.Add(1)
	}()
}

// Close waits for in-flight relays.
func (c *Console) Close() {
	c.relays.Wait()
}

func (c *Console) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := View{
		Profile: c.prof,
		State:   c.state,
		Steps:   append([]string{}, c.steps...),
		Results: append([]domain.Result{}, c.results...),
		Stats:   domain.ComputeStats(c.results),
	}
	if c.last != nil {
		last := c.last.Clone()
		v.LastAnalysis = &last
	}
	return v
}

// Results returns the history newest first.
func (c *Console) Results() []domain.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Result{}, c.results...)
}

func (c *Console) Stats() domain.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ComputeStats(c.results)
}

// LastAnalysis reports the verdict of the most recent completed scan. It is
// cleared when a new scan starts.
func (c *Console) LastAnalysis() (ai.SecurityStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return ai.SecurityStatus{}, false
	}
	return c.last.Clone(), true
}

func (c *Console) Scanning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateScanning
}

func (c *Console) Steps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.steps...)
}

// ClearHistory removes the durable record, then empties the in-memory log.
// When the record cannot be removed the log is left as it was.
func (c *Console) ClearHistory(ctx context.Context) error {
	c.persist.Lock()
	defer c.persist.Unlock()

	if err := c.history.Clear(ctx); err != nil {
		c.metrics.PersistFailures.Add(1)
		return err
	}
	c.mu.Lock()
	c.results = []domain.Result{}
	c.mu.Unlock()
	c.logger.Info("scan history cleared")
	return nil
}

func (c *Console) Profile() profile.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prof
}

// SaveProfile writes p through and, once stored, makes it the current profile.
func (c *Console) SaveProfile(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.persist.Lock()
	defer c.persist.Unlock()

	if err := c.profiles.Save(ctx, p); err != nil {
		c.metrics.PersistFailures.Add(1)
		return err
	}
	c.mu.Lock()
	c.prof = p
	c.mu.Unlock()
	return nil
}
