package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/telvora/call-scheduler/internal/model"
	"github.com/telvora/call-scheduler/pkg/worker"
)

// Config controls the fake call lifecycle. Delays are per step, measured from the
// previous transition.
type Config struct {
	RingDelay     time.Duration
	ConnectDelay  time.Duration
	CompleteDelay time.Duration

	// CompletedDuration is the duration (seconds) stamped on the terminal
	// transition.
	CompletedDuration int

	WorkerCount int
	QueueSize   int
}

func DefaultConfig() Config {
	return Config{
		RingDelay:         2 * time.Second,
		ConnectDelay:      3 * time.Second,
		CompleteDelay:     5 * time.Second,
		CompletedDuration: 10,
		WorkerCount:       256,
		QueueSize:         10_000,
	}
}

// Engine owns the in-memory call store and drives each call through
// initiated -> ringing -> connected -> completed on a worker pool. One
// progression job per call keeps its transitions strictly ordered; distinct
// calls progress independently.
type Engine struct {
	cfg    Config
	mu     sync.RWMutex
	calls  map[string]*model.CallRecord
	pool   *worker.WorkerManager
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type progressionJob struct {
	callID string
}

func NewEngine(cfg Config) *Engine {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 256
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10_000
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:    cfg,
		calls:  make(map[string]*model.CallRecord),
		pool:   worker.NewWorkerManager(cfg.QueueSize, cfg.WorkerCount, nil),
		ctx:    ctx,
		cancel: cancel,
	}
	e.pool.SetWorker(e.runProgression)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.pool.Start(); err != nil {
			log.Debug().Err(err).Msg("progression workers exited")
		}
	}()

	return e
}

// Initiate creates a call in state "initiated" and schedules its progression.
// Input validation is the transport layer's job; the engine accepts any number.
func (e *Engine) Initiate(phoneNumber string) *model.CallRecord {
	now := time.Now()
	rec := &model.CallRecord{
		ID:          uuid.New().String(),
		PhoneNumber: phoneNumber,
		Status:      model.CallStatusInitiated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.mu.Lock()
	e.calls[rec.ID] = rec
	e.mu.Unlock()

	e.pool.Enqueue(progressionJob{callID: rec.ID})

	log.Info().Str("call_id", rec.ID).Str("phone", phoneNumber).Msg("call initiated")

	return snapshot(rec)
}

// Get returns a copy of the call record, or false if it does not exist.
func (e *Engine) Get(id string) (*model.CallRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, ok := e.calls[id]
	if !ok {
		return nil, false
	}
	return snapshot(rec), true
}

// Evict drops a call record. Any in-flight progression for it silently becomes a
// no-op.
func (e *Engine) Evict(id string) {
	e.mu.Lock()
	delete(e.calls, id)
	e.mu.Unlock()
}

// Shutdown cancels pending progressions and stops the worker pool.
func (e *Engine) Shutdown() {
	e.cancel()
	e.pool.Exit()
	e.wg.Wait()
}

func (e *Engine) runProgression(_ int, job interface{}) {
	j, ok := job.(progressionJob)
	if !ok {
		return
	}

	steps := []struct {
		delay  time.Duration
		status model.CallStatus
	}{
		{e.cfg.RingDelay, model.CallStatusRinging},
		{e.cfg.ConnectDelay, model.CallStatusConnected},
		{e.cfg.CompleteDelay, model.CallStatusCompleted},
	}

	for _, step := range steps {
		select {
		case <-e.ctx.Done():
			return
		case <-time.After(step.delay):
		}
		if !e.advance(j.callID, step.status) {
			// record vanished, nothing to resurrect
			return
		}
	}
}

func (e *Engine) advance(id string, status model.CallStatus) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.calls[id]
	if !ok {
		return false
	}

	rec.Status = status
	rec.UpdatedAt = time.Now()
	if status == model.CallStatusCompleted {
		d := e.cfg.CompletedDuration
		rec.Duration = &d
	}

	log.Debug().Str("call_id", id).Str("status", string(status)).Msg("call transitioned")

	return true
}

func snapshot(rec *model.CallRecord) *model.CallRecord {
	cp := *rec
	if rec.Duration != nil {
		d := *rec.Duration
		cp.Duration = &d
	}
	return &cp
}
