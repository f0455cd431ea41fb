package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestIndicator_StartStop(t *testing.T) {
	var buf syncBuffer
	p := New(context.Background(), &buf, "normalizing", 10)

	if p.IsActive() {
		t.Error("indicator should not be active initially")
	}

	p.Start()
	if !p.IsActive() {
		t.Error("indicator should be active after Start()")
	}
	p.Add(3)

	time.Sleep(250 * time.Millisecond)
	p.Stop()

	if p.IsActive() {
		t.Error("indicator should not be active after Stop()")
	}

	output := buf.String()
	if !strings.Contains(output, "normalizing 3/10") {
		t.Errorf("output %q should contain the counter", output)
	}
	// non-terminal output ends with a bare carriage return
	if !strings.HasSuffix(output, "\r") {
		t.Errorf("output %q should end with carriage return", output)
	}
}

func TestIndicator_NoTotal(t *testing.T) {
	p := New(context.Background(), &syncBuffer{}, "reading", 0)
	p.Add(2)
	if got := p.line(0); got != "\r◜ reading 2" {
		t.Errorf("line(0) = %q", got)
	}
	if got := p.line(7); !strings.HasPrefix(got, "\r◠") {
		t.Errorf("line(7) = %q, want second frame", got)
	}
}

func TestIndicator_DoubleStartStop(t *testing.T) {
	p := New(context.Background(), &syncBuffer{}, "x", 1)

	p.Stop() // stop before start is a no-op
	p.Start()
	p.Start()
	if !p.IsActive() {
		t.Error("indicator should still be active after second Start()")
	}
	p.Stop()
	p.Stop()
	if p.IsActive() {
		t.Error("indicator should not be active after Stop()")
	}
}

func TestIndicator_Restart(t *testing.T) {
	var buf syncBuffer
	p := New(context.Background(), &buf, "x", 5)

	p.Start()
	p.Stop()

	p.Add(2)
	p.Start()
	time.Sleep(250 * time.Millisecond)
	p.Stop()

	// only the restarted animation can have drawn the new count
	if !strings.Contains(buf.String(), "x 2/5") {
		t.Errorf("output %q should show the count drawn after restart", buf.String())
	}
}

func TestIndicator_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, &syncBuffer{}, "x", 1)
	p.Start()
	cancel()

	// Stop must not hang once the goroutine has exited on its own
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after context cancel")
	}
}

func TestIndicator_ConcurrentAdd(t *testing.T) {
	p := New(context.Background(), &syncBuffer{}, "x", 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Add(1)
			}
		}()
	}
	wg.Wait()
	if p.Done() != 800 {
		t.Errorf("Done() = %d, want 800", p.Done())
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}
