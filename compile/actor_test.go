package compile

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"tsvr/vecir"
)

type countingCompiler struct {
	calls atomic.Int64
}

func (c *countingCompiler) Compile(ctx context.Context, rev Revision, reasons CompileReasons) (*vecir.Module, error) {
	c.calls.Add(1)
	return &vecir.Module{}, nil
}

func TestActorCoalescesQueuedCompiles(t *testing.T) {
	compiler := &countingCompiler{}
	a := NewActor(zap.NewNop(), compiler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	// Flood several compile requests before the actor has a chance to run;
	// they should coalesce into far fewer actual Compile calls.
	for i := 0; i < 5; i++ {
		a.Send(Interrupt{Kind: IKCompile})
	}

	deadline := time.After(time.Second)
	for {
		ch := make(chan *CompileReport, 1)
		a.Send(Interrupt{Kind: IKSnapshotRead, SnapshotCh: ch})
		select {
		case rep := <-ch:
			if rep != nil {
				goto done
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a compile result")
		}
		time.Sleep(5 * time.Millisecond)
	}
done:
	if compiler.calls.Load() == 0 {
		t.Fatalf("expected at least one compile call")
	}
}

func TestActorCurrentReadWaitsForCompile(t *testing.T) {
	compiler := &countingCompiler{}
	a := NewActor(zap.NewNop(), compiler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Send(Interrupt{Kind: IKCompile})

	ch := make(chan *CompileReport, 1)
	a.Send(Interrupt{Kind: IKCurrentRead, CurrentCh: ch})

	select {
	case rep := <-ch:
		if rep == nil || rep.Success == nil {
			t.Fatalf("expected a successful compile report, got %+v", rep)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for CurrentRead reply")
	}
}

func TestActorSettleStopsTheLoop(t *testing.T) {
	compiler := &countingCompiler{}
	a := NewActor(zap.NewNop(), compiler)

	ctx := context.Background()
	go a.Run(ctx)

	settled := make(chan struct{})
	a.Send(Interrupt{Kind: IKSettle, SettleCh: settled})

	select {
	case <-settled:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for settle")
	}
}
