package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"tsvr/compile"
	"tsvr/vecir"
)

type fakeCompiler struct{}

func (fakeCompiler) Compile(ctx context.Context, rev compile.Revision, reasons compile.CompileReasons) (*vecir.Module, error) {
	return &vecir.Module{Items: vecir.NewItemMap(nil)}, nil
}

func TestWatcherDebouncesBurstsIntoOneFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(file, []byte("a"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log := zap.NewNop()
	actor := compile.NewActor(log, fakeCompiler{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	w, err := New(log, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.debounce = 20 * time.Millisecond
	defer w.Close()

	if err := w.Add(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	go w.Run()

	// A burst of writes within the debounce window should still only
	// register as a single underlying timer keyed by path.
	for i := 0; i < 3; i++ {
		os.WriteFile(file, []byte("burst"), 0o644)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	w.mu.Lock()
	pending := len(w.timers)
	w.mu.Unlock()
	if pending != 0 {
		t.Fatalf("expected debounce timers to have fired and cleared, got %d pending", pending)
	}
}
