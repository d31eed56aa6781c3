package memory

import (
	"context"
	"testing"

	"bikedash/internal/core"
)

func TestStoreLoadCopies(t *testing.T) {
	daily := []core.DailyRecord{{Date: core.NewDate(2011, 1, 1), Total: 5}}
	s := New(daily, nil)

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	snap.Daily[0].Total = 99

	again, _ := s.Load(context.Background())
	if again.Daily[0].Total != 5 {
		t.Fatalf("stored table mutated through snapshot")
	}
	if daily[0].Total != 5 {
		t.Fatalf("input mutated")
	}

	s.Replace(nil, []core.HourlyRecord{{Date: core.NewDate(2011, 1, 1), Hour: 1}})
	replaced, _ := s.Load(context.Background())
	if len(replaced.Daily) != 0 || len(replaced.Hourly) != 1 {
		t.Fatalf("Replace not applied: %+v", replaced)
	}
}

func TestStoreLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil, nil).Load(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
