package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"toolbridge/internal/domain"
)

type fakeConn struct {
	id      int
	pingErr error
	closed  atomic.Bool
	db      Database
}

func (f *fakeConn) Ping(context.Context) error { return f.pingErr }
func (f *fakeConn) Close(context.Context) error {
	f.closed.Store(true)
	return nil
}
func (f *fakeConn) Database() Database { return f.db }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func countingDialer(dials *atomic.Int32) Dialer {
	return func(context.Context) (Conn, error) {
		n := dials.Add(1)
		return &fakeConn{id: int(n)}, nil
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	var dials atomic.Int32
	p := NewPool(2, time.Second, countingDialer(&dials), testLogger())

	h1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	h2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.Release(h1)
	p.Release(h2)

	// Released connections are reused, not re-dialed.
	h3, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.Release(h3)

	if got := dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2", got)
	}
}

func TestPoolExhaustionTimesOut(t *testing.T) {
	var dials atomic.Int32
	p := NewPool(1, 50*time.Millisecond, countingDialer(&dials), testLogger())

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err = p.Acquire(context.Background())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("exhausted acquire error = %v, want ErrBackendUnavailable", err)
	}

	p.Release(h)
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestPoolMaxCheckoutInvariant(t *testing.T) {
	const size = 3
	var dials atomic.Int32
	p := NewPool(size, 200*time.Millisecond, countingDialer(&dials), testLogger())

	var mu sync.Mutex
	checkedOut, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < size+2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.Acquire(context.Background())
			if err != nil {
				// The overflow callers may time out; that is the contract.
				if !errors.Is(err, domain.ErrBackendUnavailable) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			checkedOut++
			if checkedOut > peak {
				peak = checkedOut
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			checkedOut--
			mu.Unlock()
			p.Release(h)
		}()
	}
	wg.Wait()

	if peak > size {
		t.Errorf("peak concurrent checkouts = %d, exceeds pool size %d", peak, size)
	}
}

func TestPoolPoisonedConnReplaced(t *testing.T) {
	var dials atomic.Int32
	p := NewPool(1, time.Second, countingDialer(&dials), testLogger())

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	first := h.Conn().(*fakeConn)
	h.Poison()
	p.Release(h)

	h2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after poison: %v", err)
	}
	defer p.Release(h2)

	if h2.Conn().(*fakeConn).id == first.id {
		t.Error("poisoned connection was reused")
	}
	if dials.Load() != 2 {
		t.Errorf("dials = %d, want 2 (replacement dialed lazily)", dials.Load())
	}
}

func TestPoolDialFailurePreservesCapacity(t *testing.T) {
	failing := true
	dial := func(context.Context) (Conn, error) {
		if failing {
			return nil, errors.New("connection refused")
		}
		return &fakeConn{}, nil
	}
	p := NewPool(1, 100*time.Millisecond, dial, testLogger())

	_, err := p.Acquire(context.Background())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("dial failure error = %v, want ErrBackendUnavailable", err)
	}

	failing = false
	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after dial recovers: %v", err)
	}
	p.Release(h)
}

func TestPoolHealthCheck(t *testing.T) {
	broken := &fakeConn{pingErr: errors.New("server gone")}
	dial := func(context.Context) (Conn, error) { return broken, nil }
	p := NewPool(1, time.Second, dial, testLogger())

	if err := p.HealthCheck(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("health check error = %v, want ErrBackendUnavailable", err)
	}
}
