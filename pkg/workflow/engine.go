package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/readmeforge/readmeforge/pkg/analyzer"
	"github.com/readmeforge/readmeforge/pkg/envutil"
	"github.com/readmeforge/readmeforge/pkg/logger"
	"github.com/readmeforge/readmeforge/pkg/parser"
)

var engineLog = logger.New("workflow:engine")

// EngineConfig tunes the orchestration engine. Zero values take defaults,
// which can themselves be adjusted through environment variables.
type EngineConfig struct {
	// BreakerThreshold is the consecutive-failure count that opens an
	// analyzer's circuit breaker.
	BreakerThreshold int
	// BreakerCooldown is how long an open breaker suppresses calls.
	BreakerCooldown time.Duration
	// StageTimeout bounds each pipeline stage independently.
	StageTimeout time.Duration
	// DetectionPoolSize bounds concurrent analyzer calls in the
	// Detecting stage.
	DetectionPoolSize int
	// EventHistoryLimit caps the engine event history.
	EventHistoryLimit int
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = envutil.GetIntFromEnv("READMEFORGE_BREAKER_THRESHOLD", 3, 1, 100, engineLog)
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 30 * time.Second
	}
	if c.DetectionPoolSize <= 0 {
		c.DetectionPoolSize = envutil.GetIntFromEnv("READMEFORGE_DETECTION_POOL_SIZE", 4, 1, 64, engineLog)
	}
	if c.EventHistoryLimit <= 0 {
		c.EventHistoryLimit = envutil.GetIntFromEnv("READMEFORGE_EVENT_HISTORY_LIMIT", 100, 10, 10000, engineLog)
	}
	return c
}

// QueueStatus describes the engine's run queue.
type QueueStatus struct {
	Pending int
	Active  bool
}

// Engine serializes and executes pipeline runs as a state machine:
// Idle -> Parsing -> Detecting -> Generating -> Completed, with Failed and
// Cancelled terminal from any non-terminal state. Concurrent Run calls are
// queued FIFO.
type Engine struct {
	parser    ReadmeParser
	registry  *analyzer.Registry
	generator *Generator
	config    EngineConfig

	breakers *breakerSet
	history  *eventHistory

	queueMu sync.Mutex
	waiters []chan struct{}
	active  bool

	stateMu sync.Mutex
	state   State
}

// NewEngine assembles an engine from its collaborators.
func NewEngine(readmeParser ReadmeParser, registry *analyzer.Registry, generator *Generator, config EngineConfig) *Engine {
	config = config.withDefaults()
	return &Engine{
		parser:    readmeParser,
		registry:  registry,
		generator: generator,
		config:    config,
		breakers:  newBreakerSet(config.BreakerThreshold, config.BreakerCooldown),
		history:   newEventHistory(config.EventHistoryLimit),
		state:     StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Engine) setState(state State) {
	e.stateMu.Lock()
	e.state = state
	e.stateMu.Unlock()
	engineLog.Printf("State transition: %s", state)
}

// EventHistory returns an immutable snapshot of recorded events, bounded
// and newest-last.
func (e *Engine) EventHistory() []EngineEvent {
	return e.history.snapshot()
}

// CircuitBreakerStatus returns per-dependency breaker snapshots.
func (e *Engine) CircuitBreakerStatus() map[string]BreakerState {
	return e.breakers.Snapshot()
}

// QueueStatus returns the number of queued runs and whether a run is in
// flight.
func (e *Engine) QueueStatus() QueueStatus {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return QueueStatus{Pending: len(e.waiters), Active: e.active}
}

// acquire takes the engine's run slot, waiting FIFO behind earlier
// callers. A context cancellation while queued abandons the wait.
func (e *Engine) acquire(ctx context.Context) error {
	e.queueMu.Lock()
	if !e.active && len(e.waiters) == 0 {
		e.active = true
		e.queueMu.Unlock()
		return nil
	}
	ticket := make(chan struct{})
	e.waiters = append(e.waiters, ticket)
	pending := len(e.waiters)
	e.queueMu.Unlock()
	engineLog.Printf("Run queued: pending=%d", pending)

	select {
	case <-ticket:
		return nil
	case <-ctx.Done():
		e.queueMu.Lock()
		removed := false
		for i, w := range e.waiters {
			if w == ticket {
				e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
				removed = true
				break
			}
		}
		e.queueMu.Unlock()
		if !removed {
			// The slot was granted concurrently with cancellation; pass
			// it along so the queue keeps draining.
			<-ticket
			e.release()
		}
		return ctx.Err()
	}
}

// release hands the run slot to the next queued caller, or marks the
// engine inactive when the queue is empty.
func (e *Engine) release() {
	e.queueMu.Lock()
	if len(e.waiters) > 0 {
		next := e.waiters[0]
		e.waiters = e.waiters[1:]
		close(next)
	} else {
		e.active = false
	}
	e.queueMu.Unlock()
}

func (e *Engine) record(stage State, outcome Outcome, detail string) {
	e.history.append(EngineEvent{
		Stage:     stage,
		Outcome:   outcome,
		Timestamp: time.Now(),
		Detail:    detail,
	})
}

// Run executes the full pipeline over README content. Every failure path
// returns a typed error from the taxonomy in errors.go; no partial model
// is ever returned.
func (e *Engine) Run(ctx context.Context, content string, options RunOptions) (*WorkflowModel, error) {
	if err := e.acquire(ctx); err != nil {
		e.record(StateParsing, OutcomeCancelled, "cancelled while queued")
		return nil, NewCancelledError(StateParsing)
	}
	defer e.release()
	defer e.setState(StateIdle)

	timeout := e.config.StageTimeout
	if options.StageTimeout > 0 {
		timeout = options.StageTimeout
	}

	// Parsing
	if err := e.checkCancelled(ctx, StateParsing); err != nil {
		return nil, err
	}
	e.setState(StateParsing)
	parsed, err := runStage(ctx, StateParsing, timeout, func(stageCtx context.Context) (*parser.ReadmeContent, error) {
		return e.parser.Parse(stageCtx, content)
	})
	if err != nil {
		return nil, e.fail(StateParsing, err)
	}
	e.record(StateParsing, OutcomeSuccess, "")

	// Detecting
	if err := e.checkCancelled(ctx, StateDetecting); err != nil {
		return nil, err
	}
	e.setState(StateDetecting)
	detections, err := runStage(ctx, StateDetecting, timeout, func(stageCtx context.Context) ([]analyzer.DetectionResult, error) {
		return e.detect(stageCtx, parsed), nil
	})
	if err != nil {
		return nil, e.fail(StateDetecting, err)
	}
	e.record(StateDetecting, OutcomeSuccess, fmt.Sprintf("%d detections", len(detections)))

	// Generating
	if err := e.checkCancelled(ctx, StateGenerating); err != nil {
		return nil, err
	}
	e.setState(StateGenerating)
	model, err := runStage(ctx, StateGenerating, timeout, func(stageCtx context.Context) (*WorkflowModel, error) {
		return e.generator.Generate(parsed, detections, options)
	})
	if err != nil {
		return nil, e.fail(StateGenerating, err)
	}
	e.record(StateGenerating, OutcomeSuccess, "")

	e.setState(StateCompleted)
	e.record(StateCompleted, OutcomeSuccess, "")
	engineLog.Printf("Run completed: jobs=%d", len(model.Jobs))
	return model, nil
}

// checkCancelled enforces the stage-boundary cancellation policy.
func (e *Engine) checkCancelled(ctx context.Context, next State) error {
	if ctx.Err() == nil {
		return nil
	}
	e.setState(StateCancelled)
	cancelErr := NewCancelledError(next)
	e.record(StateCancelled, OutcomeCancelled, cancelErr.Error())
	return cancelErr
}

// fail transitions the run to Failed and records the event.
func (e *Engine) fail(stage State, err error) error {
	e.setState(StateFailed)
	e.record(stage, OutcomeFailure, err.Error())
	e.record(StateFailed, OutcomeFailure, err.Error())
	engineLog.Printf("Run failed: stage=%s, err=%v", stage, err)
	return err
}

// runStage executes fn under the stage timeout. The stage context carries
// the timeout but not the caller's cancellation: cancellation is observed
// at stage boundaries only. A timeout converts to StageTimeoutError; a
// plugin panic converts to StageExecutionError.
func runStage[T any](ctx context.Context, stage State, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	stageCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type stageResult struct {
		value T
		err   error
	}
	done := make(chan stageResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		value, err := fn(stageCtx)
		done <- stageResult{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return zero, NewStageExecutionError(stage, "", res.err)
		}
		return res.value, nil
	case <-stageCtx.Done():
		return zero, NewStageTimeoutError(stage, timeout)
	}
}

// detectionOutcome is one analyzer's settled result in the fan-out.
type detectionOutcome struct {
	name   string
	result *analyzer.DetectionResult
	err    error
}

// detect fans out to every registered analyzer whose breaker admits a
// call, bounded by the detection pool. All dispatched calls are awaited
// and aggregated; individual failures are recorded and skipped rather
// than failing the stage.
func (e *Engine) detect(ctx context.Context, content *parser.ReadmeContent) []analyzer.DetectionResult {
	names := e.registry.RegisteredAnalyzers()
	engineLog.Printf("Detection fan-out: analyzers=%d, pool_size=%d", len(names), e.config.DetectionPoolSize)

	p := pool.NewWithResults[detectionOutcome]().WithMaxGoroutines(e.config.DetectionPoolSize)
	dispatched := 0
	for _, name := range names {
		if !e.breakers.Allow(name, time.Now()) {
			e.record(StateDetecting, OutcomeSkipped, fmt.Sprintf("analyzer '%s' skipped, breaker open", name))
			continue
		}
		dispatched++
		p.Go(func() (out detectionOutcome) {
			defer func() {
				if r := recover(); r != nil {
					out = detectionOutcome{name: name, err: fmt.Errorf("analyzer panic: %v", r)}
				}
			}()
			a, ok := e.registry.Analyzer(name)
			if !ok {
				return detectionOutcome{name: name, err: fmt.Errorf("analyzer '%s' was unregistered mid-run", name)}
			}
			result, err := a.Analyze(ctx, content)
			return detectionOutcome{name: name, result: result, err: err}
		})
	}

	var detections []analyzer.DetectionResult
	for _, outcome := range p.Wait() {
		if outcome.err != nil {
			e.breakers.RecordFailure(outcome.name, time.Now())
			failure := NewStageExecutionError(StateDetecting, outcome.name, outcome.err)
			e.record(StateDetecting, OutcomeFailure, failure.Error())
			continue
		}
		e.breakers.RecordSuccess(outcome.name)
		if outcome.result != nil {
			detections = append(detections, *outcome.result)
		}
	}

	engineLog.Printf("Detection settled: dispatched=%d, aggregated=%d", dispatched, len(detections))
	return detections
}
