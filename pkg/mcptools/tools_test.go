package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ctxvitals/ctxvitals/pkg/report"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
	"github.com/ctxvitals/ctxvitals/pkg/store"
)

type captureRecorder struct {
	recs []store.AssessmentRecord
}

func (c *captureRecorder) RecordAssessment(_ context.Context, rec store.AssessmentRecord) error {
	c.recs = append(c.recs, rec)
	return nil
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "context_health_check"
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("result has no content: %+v", res)
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %T", res.Content[0])
	}
	return tc.Text
}

func TestCheckTool_HappyPath(t *testing.T) {
	rec := &captureRecorder{}
	// Curated model: no network, nil cache is fine.
	tool := NewCheckTool(resolver.New(nil, ""), rec)

	res, err := tool.Handle(context.Background(), callReq(map[string]any{
		"token_count": float64(5000),
		"model":       "claude-opus-4",
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(resultText(t, res)), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Assessment.Status != "healthy" {
		t.Fatalf("status = %s, want healthy", rep.Assessment.Status)
	}
	if len(rep.Recommendations) != 1 || rep.Recommendations[0].Action != "continue" {
		t.Fatalf("recommendations = %+v, want single continue", rep.Recommendations)
	}

	if len(rec.recs) != 1 {
		t.Fatalf("recorded %d assessments, want 1", len(rec.recs))
	}
	if rec.recs[0].Model != "claude-opus-4" || rec.recs[0].Status != "healthy" {
		t.Fatalf("recorded %+v", rec.recs[0])
	}
}

func TestCheckTool_Validation(t *testing.T) {
	tool := NewCheckTool(resolver.New(nil, ""), nil)

	cases := []map[string]any{
		{"model": "claude-opus-4"},                            // missing token_count
		{"token_count": float64(1000)},                        // missing model
		{"token_count": float64(0), "model": "claude-opus-4"}, // non-positive
		{"token_count": float64(-5), "model": "claude-opus-4"},
		{"token_count": float64(1000), "model": "claude-opus-4", "tool_calls_count": float64(-1)},
	}
	for i, args := range cases {
		res, err := tool.Handle(context.Background(), callReq(args))
		if err != nil {
			t.Fatalf("case %d: handle returned transport error: %v", i, err)
		}
		if !res.IsError {
			t.Fatalf("case %d: args %v accepted, want validation error", i, args)
		}
	}
}

func TestHistoryTool_DisabledWithoutStore(t *testing.T) {
	tool := NewHistoryTool(nil)
	res, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("nil history accepted, want error result")
	}
}

func TestHistoryTool_ListsRecords(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLiteStore(t.TempDir() + "/ctxvitals.db")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer st.Close()

	if err := st.RecordAssessment(ctx, store.AssessmentRecord{
		Model: "gpt-4o", TokenCount: 90000, Score: 55, Status: "warning",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	tool := NewHistoryTool(st)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"model": "gpt-4o"}

	res, err := tool.Handle(ctx, req)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("error result: %s", resultText(t, res))
	}

	var recs []store.AssessmentRecord
	if err := json.Unmarshal([]byte(resultText(t, res)), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Model != "gpt-4o" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestModelsTool_DumpsCatalog(t *testing.T) {
	tool := NewModelsTool()
	res, err := tool.Handle(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	var profiles []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &profiles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(profiles) == 0 {
		t.Fatal("catalog dump is empty")
	}
}
