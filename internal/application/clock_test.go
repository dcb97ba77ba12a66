package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleep(t *testing.T) {
	t.Parallel()

	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep(1ms) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	if got := (FixedClock{T: ts}).Now(); !got.Equal(ts) {
		t.Errorf("Now() = %v, want %v", got, ts)
	}
}
