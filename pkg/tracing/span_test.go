package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "count", "run-7")
	aggCtx, agg := Start(ctx, "aggregate", "")
	_, merge := Start(aggCtx, "merge", "")
	merge.SetAttr("tokens", 12)
	merge.End()
	agg.End()
	_, sink := Start(ctx, "sink:json", "")
	sink.End()
	root.End()

	if FromContext(aggCtx) != agg {
		t.Error("context does not carry the child span")
	}
	if merge.RunID != "run-7" {
		t.Errorf("child run id = %q, want inherited run-7", merge.RunID)
	}
	kids := root.Children()
	if len(kids) != 2 || kids[0].Name != "aggregate" || kids[1].Name != "sink:json" {
		t.Fatalf("root children = %v", kids)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if n := strings.Count(out, "msg=span"); n != 4 {
		t.Errorf("logged %d spans, want 4:\n%s", n, out)
	}
	if !strings.Contains(out, "span=merge") || !strings.Contains(out, "tokens=12") || !strings.Contains(out, "depth=2") {
		t.Errorf("merge span missing from log:\n%s", out)
	}
}

func TestNilSpan(t *testing.T) {
	span := FromContext(context.Background())
	span.SetAttr("k", 1)
	span.End()
}
