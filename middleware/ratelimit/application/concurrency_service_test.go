package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"grounded/middleware/ratelimit/domain"
)

// fullPool nunca tem vaga: só devolve quando o ctx encerra.
type fullPool struct{}

func (fullPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}
func (fullPool) InFlight() int { return 1 }
func (fullPool) Cap() int      { return 1 }

type countingPool struct{ acquired, released int }

func (p *countingPool) Acquire(context.Context) (func(), bool) {
	p.acquired++
	return func() { p.released++ }, true
}
func (p *countingPool) InFlight() int { return p.acquired - p.released }
func (p *countingPool) Cap() int      { return 10 }

func TestSlotServiceWithoutPool(t *testing.T) {
	release, err := SlotService{}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
}

func TestSlotServiceTimesOut(t *testing.T) {
	svc := SlotService{Pool: fullPool{}, Wait: 10 * time.Millisecond}

	_, err := svc.Acquire(context.Background())
	if !errors.Is(err, domain.ErrNoSlot) || !IsNoSlot(err) {
		t.Fatalf("expected ErrNoSlot, got %v", err)
	}
}

func TestSlotServiceClientCanceled(t *testing.T) {
	svc := SlotService{Pool: fullPool{}, Wait: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSlotServiceDelegatesToPool(t *testing.T) {
	pool := &countingPool{}
	svc := SlotService{Pool: pool}

	release, err := svc.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	if pool.acquired != 1 || pool.released != 1 {
		t.Fatalf("expected one acquire and one release, got %d/%d", pool.acquired, pool.released)
	}
}
