package surface

import (
	"context"
	"errors"
	"testing"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/format"
)

func TestMemoryRegisterWriteRead(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	if err := mem.Register(ctx, domain.KindInjuries, "b"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := mem.Register(ctx, domain.KindInjuries, "a"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ids, err := mem.List(ctx, domain.KindInjuries)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected sorted ids [a b], got %v", ids)
	}

	if err := mem.Write(ctx, domain.KindInjuries, "a", Content{Text: "No injuries reported"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := mem.Read(ctx, domain.KindInjuries, "a")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Text != "No injuries reported" {
		t.Fatalf("unexpected content %+v", got)
	}
	if mem.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", mem.Writes())
	}
}

func TestMemoryRegisterTwiceKeepsContent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Register(ctx, domain.KindScores, "w1")
	_ = mem.Write(ctx, domain.KindScores, "w1", Content{Text: "x"})
	_ = mem.Register(ctx, domain.KindScores, "w1")

	got, _ := mem.Read(ctx, domain.KindScores, "w1")
	if got.Text != "x" {
		t.Fatalf("expected content to survive re-register, got %+v", got)
	}
}

func TestMemoryWriteUnknownSurface(t *testing.T) {
	mem := NewMemory()
	err := mem.Write(context.Background(), domain.KindStandings, "missing", Content{Text: "x"})
	if !errors.Is(err, ErrUnknownSurface) {
		t.Fatalf("expected ErrUnknownSurface, got %v", err)
	}
}

func TestMemoryUnregister(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Register(ctx, domain.KindGames, "w1")
	if err := mem.Unregister(ctx, domain.KindGames, "w1"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := mem.Unregister(ctx, domain.KindGames, "never"); err != nil {
		t.Fatalf("unregister unknown: %v", err)
	}
	ids, _ := mem.List(ctx, domain.KindGames)
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
	if _, err := mem.Read(ctx, domain.KindGames, "w1"); !errors.Is(err, ErrUnknownSurface) {
		t.Fatalf("expected ErrUnknownSurface after unregister, got %v", err)
	}
}

func TestMemoryReadReturnsCopyOfRows(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Register(ctx, domain.KindGames, "w1")
	rows := []format.GameRow{{Status: "Final", AwayTricode: "BOS", HomeTricode: "LAL"}}
	_ = mem.Write(ctx, domain.KindGames, "w1", Content{Rows: rows})
	rows[0].Status = "mutated"

	got, _ := mem.Read(ctx, domain.KindGames, "w1")
	got.Rows[0].AwayTricode = "mutated"
	again, _ := mem.Read(ctx, domain.KindGames, "w1")

	if again.Rows[0].Status != "Final" || again.Rows[0].AwayTricode != "BOS" {
		t.Fatalf("expected stored rows to be isolated, got %+v", again.Rows[0])
	}
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().List(ctx, domain.KindScores); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
