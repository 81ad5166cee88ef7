package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRepricer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRepricer) RepriceAll(ctx context.Context) (int, error) {
	r.calls.Add(1)
	return 1, r.err
}

type stubDeals struct {
	expired int64
	err     error
	gotNow  time.Time
}

func (s *stubDeals) DeactivateExpiredDeals(ctx context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return s.expired, s.err
}

func TestRepriceWorkerRunsOnTick(t *testing.T) {
	rep := &countingRepricer{}
	w := NewRepriceWorker(rep, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for rep.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("reprice worker did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRepriceWorkerDisabledWithoutInterval(t *testing.T) {
	rep := &countingRepricer{}
	NewRepriceWorker(rep, 0).Start(context.Background())
	if rep.calls.Load() != 0 {
		t.Error("worker with zero interval should not run")
	}
}

func TestDealExpiryRun(t *testing.T) {
	fixed := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		deals       *stubDeals
		wantReprice int32
	}{
		{name: "expired deals trigger reprice", deals: &stubDeals{expired: 2}, wantReprice: 1},
		{name: "nothing expired", deals: &stubDeals{}, wantReprice: 0},
		{name: "store error", deals: &stubDeals{err: errors.New("db down")}, wantReprice: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &countingRepricer{}
			w, err := NewDealExpiryWorker(tt.deals, rep, "@daily")
			if err != nil {
				t.Fatalf("NewDealExpiryWorker: %v", err)
			}
			w.now = func() time.Time { return fixed }

			w.run(context.Background())

			if got := rep.calls.Load(); got != tt.wantReprice {
				t.Errorf("reprice calls: got %d, want %d", got, tt.wantReprice)
			}
			if !tt.deals.gotNow.Equal(fixed) {
				t.Errorf("now: got %s", tt.deals.gotNow)
			}
		})
	}
}

func TestDealExpiryRejectsBadSchedule(t *testing.T) {
	if _, err := NewDealExpiryWorker(&stubDeals{}, &countingRepricer{}, "every tuesday"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestDealExpiryStartStops(t *testing.T) {
	w, err := NewDealExpiryWorker(&stubDeals{}, &countingRepricer{}, "0 0 * * *")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
