package shell

import (
	"context"
	"sync"
	"testing"
)

// loopbackShell is a non-process CustomShell: every WriteInputAsync call
// is echoed back verbatim through OnOutputReceived, letting tests exercise
// the Bridge's concurrency and lifecycle contracts without a real PTY.
type loopbackShell struct {
	mu        sync.Mutex
	running   bool
	onOutput  OutputFunc
	onTerm    TerminatedFunc
	lastSize  [2]int
	startErr  error
	outputs   [][]byte
}

func (s *loopbackShell) Metadata() Metadata {
	return NewMetadata("loopback", "echoes input as output", "1.0", "", nil)
}

func (s *loopbackShell) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *loopbackShell) StartAsync(ctx context.Context, opts StartOptions) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.running = true
	s.lastSize = [2]int{opts.Width, opts.Height}
	s.mu.Unlock()
	return nil
}

func (s *loopbackShell) StopAsync(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	term := s.onTerm
	s.mu.Unlock()
	if term != nil {
		term(0, nil)
	}
	return nil
}

func (s *loopbackShell) WriteInputAsync(ctx context.Context, data []byte) error {
	s.mu.Lock()
	out := s.onOutput
	s.outputs = append(s.outputs, data)
	s.mu.Unlock()
	if out != nil {
		out(data)
	}
	return nil
}

func (s *loopbackShell) NotifyTerminalResize(w, h int) {
	s.mu.Lock()
	s.lastSize = [2]int{w, h}
	s.mu.Unlock()
}

func (s *loopbackShell) RequestCancellation() {}
func (s *loopbackShell) SendInitialOutput()    {}

func (s *loopbackShell) Dispose() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *loopbackShell) OnOutputReceived(fn OutputFunc) {
	s.mu.Lock()
	s.onOutput = fn
	s.mu.Unlock()
}

func (s *loopbackShell) OnTerminated(fn TerminatedFunc) {
	s.mu.Lock()
	s.onTerm = fn
	s.mu.Unlock()
}

var _ CustomShell = (*loopbackShell)(nil)

func TestBridgeRejectsIOBeforeStart(t *testing.T) {
	b := NewBridge(&loopbackShell{})
	if err := b.Write(context.Background(), []byte("x")); err != ErrInvalidOperation {
		t.Fatalf("Write before Start = %v, want ErrInvalidOperation", err)
	}
	if err := b.Resize(80, 24); err != ErrInvalidOperation {
		t.Fatalf("Resize before Start = %v, want ErrInvalidOperation", err)
	}
}

func TestBridgeLifecycle(t *testing.T) {
	b := NewBridge(&loopbackShell{})
	ctx := context.Background()

	if err := b.Start(ctx, DefaultStartOptions()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !b.IsRunning() {
		t.Fatal("expected running after Start")
	}

	var received []byte
	b.OnOutput(func(data []byte) { received = data })
	if err := b.Write(ctx, []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if string(received) != "hello" {
		t.Fatalf("received = %q, want %q", received, "hello")
	}

	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if b.IsRunning() {
		t.Fatal("expected not running after Stop")
	}
	if err := b.Write(ctx, []byte("x")); err != ErrInvalidOperation {
		t.Fatalf("Write after Stop = %v, want ErrInvalidOperation", err)
	}
}

func TestBridgeDisposeIdempotent(t *testing.T) {
	b := NewBridge(&loopbackShell{})
	b.Start(context.Background(), DefaultStartOptions())

	if err := b.Dispose(); err != nil {
		t.Fatalf("first Dispose() error = %v", err)
	}
	if err := b.Dispose(); err != ErrObjectDisposed {
		t.Fatalf("second Dispose() = %v, want ErrObjectDisposed", err)
	}
	if err := b.Write(context.Background(), []byte("x")); err != ErrObjectDisposed {
		t.Fatalf("Write after Dispose = %v, want ErrObjectDisposed", err)
	}
}

func TestBridgeTerminationSetsNotRunning(t *testing.T) {
	s := &loopbackShell{}
	b := NewBridge(s)
	b.Start(context.Background(), DefaultStartOptions())

	var gotCode int
	b.OnTerminated(func(exitCode int, reason *string) { gotCode = exitCode })
	s.StopAsync(context.Background())

	if b.IsRunning() {
		t.Fatal("expected not running after termination")
	}
	if gotCode != 0 {
		t.Fatalf("exit code = %d, want 0", gotCode)
	}
}

// Concurrent writes paired with shell-originated output: N writes in, N
// outputs out, each output byte-equal to its paired input.
func TestBridgeConcurrentWritesDeliverExactlyOnce(t *testing.T) {
	s := &loopbackShell{}
	b := NewBridge(s)
	b.Start(context.Background(), DefaultStartOptions())

	const n = 50
	var mu sync.Mutex
	seen := make(map[string]int)
	b.OnOutput(func(data []byte) {
		mu.Lock()
		seen[string(data)]++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Write(context.Background(), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	total := 0
	for _, c := range seen {
		total += c
	}
	if total != n {
		t.Fatalf("total outputs = %d, want %d", total, n)
	}
	for k, c := range seen {
		if c != 1 {
			t.Fatalf("payload %q delivered %d times, want exactly 1", k, c)
		}
	}
}
