// Package compile implements the CompileActor: a single-writer event loop
// that coalesces watch/memory/entry interrupts into consistent compilation
// snapshots, dispatching the actual compile work to a worker so the actor
// itself never blocks on it.
package compile

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tsvr/vecir"
)

// Revision identifies a compile attempt; committed_revision only ever moves
// forward, so a result whose revision is stale is dropped.
type Revision uint64

// BuildVersion uniquely stamps one successful compile, independent of its
// revision counter.
type BuildVersion struct {
	ID uuid.UUID
}

// NewBuildVersion mints a fresh build version id (uuid.New panics only on
// exhausted entropy, which callers accept as fatal — matching uuid.New's own
// contract).
func NewBuildVersion() BuildVersion { return BuildVersion{ID: uuid.New()} }

// CompileReasons OR-merges why a compile was requested; coalescing combines
// any number of queued interrupts into one of these before deciding whether
// to kick a compile.
type CompileReasons struct {
	ByMemory bool
	ByFs     bool
	ByEntry  bool
}

// Merge ORs r2 into r.
func (r CompileReasons) Merge(r2 CompileReasons) CompileReasons {
	return CompileReasons{
		ByMemory: r.ByMemory || r2.ByMemory,
		ByFs:     r.ByFs || r2.ByFs,
		ByEntry:  r.ByEntry || r2.ByEntry,
	}
}

// IsZero reports whether no reason is set (nothing to compile for).
func (r CompileReasons) IsZero() bool { return !r.ByMemory && !r.ByFs && !r.ByEntry }

// CompileReport is the sum-type result of one compile attempt.
type CompileReport struct {
	Revision Revision
	Success  *CompileSuccess
	Failure  *CompileFailure
}

// CompileSuccess carries the finished module and its build version.
type CompileSuccess struct {
	Version BuildVersion
	Module  *vecir.Module
}

// CompileFailure carries the error from a failed compile attempt.
type CompileFailure struct {
	Err error
}

// TaggedMemoryEvent pairs a shadow edit with the logical tick TagMemory
// assigned it, the tick an upstream-update marker carries back through the
// fs channel.
type TaggedMemoryEvent struct {
	LogicalTick uint64
	Event       MemoryEvent
}

// MemoryEvent is a shadow-filesystem overlay edit.
type MemoryEvent struct {
	Sync   bool // full overlay replace rather than incremental update
	Path   string
	Data   []byte
	Remove bool
}

// FsEvent is a single upstream filesystem change. A nonzero Tick marks it as
// the upstream-update marker for a previously tagged shadow edit: when it
// arrives, the matching shadow edit (if any) is removed from the pending set
// and the compile it triggers is recorded as caused by both memory and fs.
// The actor keeps no overlay of its own; the edit's Path and Data are not
// applied by it.
type FsEvent struct {
	Path string
	Tick uint64
}

// Interrupt is the actor's queue message type. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Interrupt struct {
	Kind InterruptKind

	Compiled     *CompileReport
	ChangeInputs []string
	ChangeEntry  string
	SnapshotCh   chan<- *CompileReport
	CurrentCh    chan<- *CompileReport
	Memory       *MemoryEvent
	Fs           *FsEvent
	SettleCh     chan<- struct{}
}

// InterruptKind tags an Interrupt's variant.
type InterruptKind int

const (
	IKCompile InterruptKind = iota
	IKCompiled
	IKChangeTask
	IKSnapshotRead
	IKCurrentRead
	IKMemory
	IKFs
	IKSettle
)

// Compiler runs one compile attempt; CompileActor dispatches to it from a
// worker goroutine so the actor loop itself never blocks.
type Compiler interface {
	Compile(ctx context.Context, rev Revision, reasons CompileReasons) (*vecir.Module, error)
}

// Actor owns the compilation loop: a single goroutine consumes Interrupts
// from a buffered channel of capacity 256 and produces compile snapshots.
// The queue is bounded: Send blocks while the channel is full, until the
// actor has stopped.
type Actor struct {
	log      *zap.Logger
	compiler Compiler

	in   chan Interrupt
	done chan struct{}
	wg   sync.WaitGroup

	memMu sync.Mutex

	// actor-owned state, touched only from the run loop goroutine
	nextRevision      Revision
	committedRevision Revision
	compiling         bool
	suspendedReason   CompileReasons
	latest            *CompileReport
	pendingCurrent    []chan<- *CompileReport
	tick              uint64
	pendingMemory     map[uint64]MemoryEvent
}

// NewActor returns an Actor ready to Run; the caller owns the goroutine that
// calls Run.
func NewActor(log *zap.Logger, compiler Compiler) *Actor {
	return &Actor{
		log:           log,
		compiler:      compiler,
		in:            make(chan Interrupt, 256),
		done:          make(chan struct{}),
		nextRevision:  1,
		pendingMemory: make(map[uint64]MemoryEvent),
	}
}

// TagMemory records a shadow-overlay edit under a fresh logical tick,
// returning the tick so the caller can stamp the matching upstream-update
// marker it expects to see come back through the fs channel.
func (a *Actor) TagMemory(ev MemoryEvent) uint64 {
	a.memMu.Lock()
	defer a.memMu.Unlock()
	a.tick++
	a.pendingMemory[a.tick] = ev
	return a.tick
}

// Send enqueues an interrupt. Safe for concurrent callers.
func (a *Actor) Send(i Interrupt) {
	select {
	case a.in <- i:
	case <-a.done:
	}
}

// Run drives the actor loop until ctx is canceled or a Settle interrupt is
// processed. It is meant to run in its own goroutine.
func (a *Actor) Run(ctx context.Context) {
	defer close(a.done)
	results := make(chan *CompileReport, 4)

	for {
		select {
		case <-ctx.Done():
			a.wg.Wait()
			return
		case rep := <-results:
			a.compiling = false
			a.onCompiled(rep)
			if !a.suspendedReason.IsZero() {
				reason := a.suspendedReason
				a.suspendedReason = CompileReasons{}
				a.maybeCompile(ctx, reason, results)
			}
		case i := <-a.in:
			reasons := a.absorb(i)
			var settles []Interrupt
			if i.Kind == IKSettle {
				settles = append(settles, i)
			}
			// Greedily drain whatever else is already queued, OR-merging
			// reasons, before deciding whether to kick a compile.
		drain:
			for {
				select {
				case i2 := <-a.in:
					reasons = reasons.Merge(a.absorb(i2))
					if i2.Kind == IKSettle {
						settles = append(settles, i2)
					}
				default:
					break drain
				}
			}
			if len(settles) > 0 {
				a.wg.Wait()
				for _, s := range settles {
					if s.SettleCh != nil {
						close(s.SettleCh)
					}
				}
				return
			}
			a.maybeCompile(ctx, reasons, results)
		}
	}
}

// absorb applies one interrupt's immediate side effects and returns the
// CompileReasons it contributes, if any.
func (a *Actor) absorb(i Interrupt) CompileReasons {
	switch i.Kind {
	case IKCompile:
		return CompileReasons{ByEntry: true}
	case IKCompiled:
		// handled via the results channel in Run; Compiled interrupts sent
		// directly (e.g. by tests) are folded in here too.
		if i.Compiled != nil {
			a.onCompiled(i.Compiled)
		}
		return CompileReasons{}
	case IKChangeTask:
		return CompileReasons{ByEntry: true}
	case IKSnapshotRead:
		if i.SnapshotCh != nil {
			i.SnapshotCh <- a.latest
		}
		return CompileReasons{}
	case IKCurrentRead:
		if i.CurrentCh != nil {
			a.pendingCurrent = append(a.pendingCurrent, i.CurrentCh)
		}
		return CompileReasons{}
	case IKMemory:
		return CompileReasons{ByMemory: true}
	case IKFs:
		if i.Fs != nil && i.Fs.Tick != 0 {
			a.memMu.Lock()
			ev, ok := a.pendingMemory[i.Fs.Tick]
			if ok {
				delete(a.pendingMemory, i.Fs.Tick)
			}
			a.memMu.Unlock()
			if ok {
				a.log.Debug("matched pending shadow edit to fs marker",
					zap.Uint64("tick", i.Fs.Tick), zap.String("path", ev.Path))
				return CompileReasons{ByMemory: true, ByFs: true}
			}
		}
		return CompileReasons{ByFs: true}
	default:
		return CompileReasons{}
	}
}

// onCompiled records a finished report and drops stale reports. A non-stale
// report answers every queued CurrentRead; readers carry no revision, so a
// compile that was already in flight when a read was queued can answer it.
func (a *Actor) onCompiled(rep *CompileReport) {
	if rep == nil {
		return
	}
	if rep.Revision <= a.committedRevision {
		a.log.Debug("dropping stale compile result",
			zap.Uint64("revision", uint64(rep.Revision)),
			zap.Uint64("committed", uint64(a.committedRevision)))
		return
	}
	a.committedRevision = rep.Revision
	a.latest = rep
	for _, ch := range a.pendingCurrent {
		ch <- rep
	}
	a.pendingCurrent = nil
}

// maybeCompile kicks a compile for reasons if none is in flight, or accrues
// reasons into suspendedReason if one already is.
func (a *Actor) maybeCompile(ctx context.Context, reasons CompileReasons, results chan<- *CompileReport) {
	if reasons.IsZero() {
		return
	}
	if a.compiling {
		a.suspendedReason = a.suspendedReason.Merge(reasons)
		return
	}
	a.compiling = true
	rev := a.nextRevision
	a.nextRevision++

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		mod, err := a.compiler.Compile(ctx, rev, reasons)
		rep := &CompileReport{Revision: rev}
		if err != nil {
			rep.Failure = &CompileFailure{Err: err}
		} else {
			rep.Success = &CompileSuccess{Version: NewBuildVersion(), Module: mod}
		}
		select {
		case results <- rep:
		case <-ctx.Done():
		}
	}()
}
