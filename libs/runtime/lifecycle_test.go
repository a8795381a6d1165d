package runtime

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsAllStops(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	err := Shutdown(time.Second,
		func(context.Context) error { order = append(order, "http"); return nil },
		nil,
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatal("expected deadline")
			}
			order = append(order, "otel")
			return boom
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(order) != 2 || order[0] != "http" || order[1] != "otel" {
		t.Fatalf("unexpected order %v", order)
	}
}
