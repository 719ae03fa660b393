package poller

import (
	"context"
	"sync"
	"time"

	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/logger"
	"github.com/telvora/call-scheduler/pkg/prom"
)

const DefaultPollInterval = 10 * time.Second
const DefaultExecutionTimeout = 5 * time.Second

// ScheduledCallRepository is the slice of the repository the poller consumes.
type ScheduledCallRepository interface {
	ListDue(ctx context.Context, now time.Time) ([]*model.ScheduledCall, error)
	MarkExecuted(ctx context.Context, id int64, executedAt time.Time, callID string) error
	MarkFailed(ctx context.Context, id int64, executedAt time.Time) error
}

type CallHistoryRepository interface {
	Create(ctx context.Context, entry *model.CallHistoryEntry) (*model.CallHistoryEntry, error)
}

// CallAPI triggers real calls on the simulation service.
type CallAPI interface {
	InitiateCall(ctx context.Context, phoneNumber string) (*model.CallRecord, error)
}

// Transactor runs fn atomically; the repositories pick the transaction up from
// the context.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Poller wakes up on a fixed interval, claims every pending entry whose
// scheduled time has passed and executes it against the call API. Each entry is
// settled independently so one bad number never blocks the rest of the batch.
type Poller struct {
	scheduledCalls ScheduledCallRepository
	history        CallHistoryRepository
	callAPI        CallAPI
	tx             Transactor

	interval         time.Duration
	executionTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithExecutionTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.executionTimeout = d
		}
	}
}

func New(scheduledCalls ScheduledCallRepository, history CallHistoryRepository, callAPI CallAPI, tx Transactor, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		scheduledCalls:   scheduledCalls,
		history:          history,
		callAPI:          callAPI,
		tx:               tx,
		interval:         DefaultPollInterval,
		executionTimeout: DefaultExecutionTimeout,
		ctx:              ctx,
		cancel:           cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling loop in the background. The first tick fires
// after one full interval.
func (p *Poller) Start() {
	logger.Info("Starting Scheduler Poller...", "interval", p.interval.String())

	p.wg.Add(1)
	go p.run()
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (p *Poller) Stop() {
	logger.Info("Shutting down Scheduler Poller...")
	p.cancel()
	p.wg.Wait()
	logger.Info("Scheduler Poller stopped")
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-p.ctx.Done():
			return
		}
	}
}

// tick runs one polling pass. A panic inside a pass is recovered so the loop
// survives until the next interval.
func (p *Poller) tick() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic in poller tick", "panic", r)
		}
	}()

	prom.IncPollerTick()

	now := time.Now()
	due, err := p.scheduledCalls.ListDue(p.ctx, now)
	if err != nil {
		logger.Error("Failed to query due scheduled calls", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	logger.Info("Executing due scheduled calls", "count", len(due))
	for _, sc := range due {
		select {
		case <-p.ctx.Done():
			return
		default:
		}
		p.execute(sc)
	}
}

// execute settles a single due entry: it triggers the call, then in one
// transaction flips the entry to executed and appends the history record. Any
// error, whether from the call API or from persistence, marks the entry failed
// with no history row. An entry that was due never stays pending.
func (p *Poller) execute(sc *model.ScheduledCall) {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(p.ctx, p.executionTimeout)
	defer cancel()

	call, err := p.callAPI.InitiateCall(callCtx, sc.PhoneNumber)
	if err != nil {
		logger.Error("Scheduled call execution failed", "id", sc.ID, "phone_number", sc.PhoneNumber, "error", err)
		p.settleFailed(sc)
		prom.IncScheduledExecution("failed")
		prom.AddExecutionDuration(time.Since(start).Seconds(), "failed")
		return
	}

	executedAt := time.Now()
	err = p.tx.WithinTransaction(p.ctx, func(ctx context.Context) error {
		if err := p.scheduledCalls.MarkExecuted(ctx, sc.ID, executedAt, call.ID); err != nil {
			return err
		}
		entry := &model.CallHistoryEntry{
			CallID:        call.ID,
			PhoneNumber:   sc.PhoneNumber,
			Status:        call.Status,
			ScheduledTime: sc.ScheduledTime,
			ExecutedAt:    executedAt,
		}
		_, err := p.history.Create(ctx, entry)
		return err
	})
	if err != nil {
		logger.Error("Failed to record scheduled call execution", "id", sc.ID, "call_id", call.ID, "error", err)
		p.settleFailed(sc)
		prom.IncScheduledExecution("failed")
		prom.AddExecutionDuration(time.Since(start).Seconds(), "failed")
		return
	}

	logger.Info("Scheduled call executed", "id", sc.ID, "call_id", call.ID, "phone_number", sc.PhoneNumber)
	prom.IncScheduledExecution("executed")
	prom.AddExecutionDuration(time.Since(start).Seconds(), "executed")
}

func (p *Poller) settleFailed(sc *model.ScheduledCall) {
	if err := p.scheduledCalls.MarkFailed(p.ctx, sc.ID, time.Now()); err != nil {
		logger.Error("Failed to mark scheduled call as failed", "id", sc.ID, "error", err)
	}
}
