package services

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven/mocks"
)

func TestQueryLogService(t *testing.T) {
	store := mocks.NewMockQueryStore()
	ctx := context.Background()
	for _, q := range []string{"What is sharding?", "what is sharding?", "Who wrote it?"} {
		_ = store.Save(ctx, &domain.QueryRecord{ID: domain.NewID(), Query: q})
	}

	svc := NewQueryLogService(store)

	history, err := svc.History(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 || history[0].Query != "Who wrote it?" {
		t.Errorf("expected newest first, got %+v", history)
	}

	history, err = svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected limit to apply, got %d", len(history))
	}

	popular, err := svc.Popular(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(popular) != 2 || popular[0].Count != 2 {
		t.Errorf("expected case-insensitive grouping, got %+v", popular)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, def, max, want int
	}{
		{0, 20, 100, 20},
		{-1, 20, 100, 20},
		{50, 20, 100, 50},
		{500, 20, 100, 100},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, tt.def, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d, %d) = %d, want %d", tt.limit, tt.def, tt.max, got, tt.want)
		}
	}
}
