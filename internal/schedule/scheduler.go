package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/weirlabs/weir/pkg/api"
	"github.com/weirlabs/weir/pkg/log"
)

type (
	// Scheduler fires automated dataflow runs at requested times. Each
	// dataflow holds at most one pending run; scheduling again replaces it
	Scheduler struct {
		now       Clock
		makeTimer TimerConstructor
		requests  chan request
	}

	// RunFunc starts the scheduled run when its time arrives
	RunFunc func() error

	requestOp uint8

	request struct {
		op       requestOp
		dataflow api.DataflowID
		at       time.Time
		fn       RunFunc
	}
)

const (
	opSchedule requestOp = iota
	opCancel
)

// New creates a scheduler using the provided clock and timer constructor
func New(now Clock, makeTimer TimerConstructor) *Scheduler {
	return &Scheduler{
		now:       now,
		makeTimer: makeTimer,
		requests:  make(chan request, 100),
	}
}

// Schedule enqueues an automated run of a dataflow at the requested time
func (s *Scheduler) Schedule(
	ctx context.Context, id api.DataflowID, at time.Time, fn RunFunc,
) {
	s.send(ctx, request{op: opSchedule, dataflow: id, at: at, fn: fn})
}

// Cancel removes the pending run for a dataflow
func (s *Scheduler) Cancel(ctx context.Context, id api.DataflowID) {
	s.send(ctx, request{op: opCancel, dataflow: id})
}

// Run processes scheduler requests until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	timer := s.makeTimer(0)
	var timerCh <-chan time.Time
	pending := newRunHeap()

	resetTimer := func() {
		var next time.Time
		if e := pending.peek(); e != nil {
			next = e.at
		}
		if next.IsZero() {
			timer.Stop()
			timerCh = nil
			return
		}
		timer.Reset(next.Sub(s.now()))
		timerCh = timer.Channel()
	}

	resetTimer()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case req := <-s.requests:
			switch req.op {
			case opSchedule:
				pending.insert(&entry{
					dataflow: req.dataflow,
					at:       req.at,
					fn:       req.fn,
				})
			case opCancel:
				pending.cancel(req.dataflow)
			}
			resetTimer()
		case <-timerCh:
			e := pending.pop()
			if e == nil {
				resetTimer()
				continue
			}
			if err := e.fn(); err != nil {
				slog.Error("Scheduled run failed",
					log.DataflowID(e.dataflow),
					log.Error(err))
			}
			resetTimer()
		}
	}
}

func (s *Scheduler) send(ctx context.Context, req request) {
	select {
	case s.requests <- req:
	case <-ctx.Done():
	}
}
