package pipeline

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hivecare/carelog/ingest"
	"github.com/hivecare/carelog/store"
)

// MCPService exposes the engine over MCP: ingest a directory, drain the
// pending queue, and read back summaries.
type MCPService struct {
	pipeline *Pipeline
	ingestor *ingest.Ingestor
	store    *store.Store
}

// NewMCPService creates the MCP facade.
func NewMCPService(p *Pipeline, in *ingest.Ingestor, st *store.Store) *MCPService {
	return &MCPService{pipeline: p, ingestor: in, store: st}
}

// RegisterMCP registers all engine tools on an MCP server.
func (s *MCPService) RegisterMCP(srv *mcp.Server) {
	s.registerIngest(srv)
	s.registerExtract(srv)
	s.registerStats(srv)
	s.registerListShiftNotes(srv)
	s.registerListIncidents(srv)
	s.registerListInvestigations(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// addTool wires a typed handler with the decode/execute/marshal boilerplate.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, run func(ctx context.Context, req *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req Req
		if call.Params.Arguments != nil {
			if err := json.Unmarshal(call.Params.Arguments, &req); err != nil {
				var res mcp.CallToolResult
				res.SetError(err)
				return &res, nil
			}
		}
		out, err := run(ctx, &req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type ingestReq struct {
	Dir string `json:"dir"`
}

func (s *MCPService) registerIngest(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_ingest",
		Description: "Scan a directory for .eml files and load new messages into the engine, deduplicated by content digest.",
		InputSchema: inputSchema(map[string]any{
			"dir": map[string]any{"type": "string", "description": "Directory to scan recursively"},
		}, []string{"dir"}),
	}
	addTool(srv, tool, func(ctx context.Context, req *ingestReq) (any, error) {
		return s.ingestor.IngestDir(ctx, req.Dir)
	})
}

type extractReq struct{}

func (s *MCPService) registerExtract(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_extract",
		Description: "Run extraction over all pending messages and return the batch outcome counts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *extractReq) (any, error) {
		return s.pipeline.Run(ctx)
	})
}

type statsReq struct{}

func (s *MCPService) registerStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_stats",
		Description: "Return pipeline counters: messages by status and extracted entities by completeness.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, _ *statsReq) (any, error) {
		return s.store.Stats(ctx)
	})
}

type listShiftNotesReq struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Limit int    `json:"limit"`
}

func (s *MCPService) registerListShiftNotes(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_list_shift_notes",
		Description: "List extracted shift notes, optionally bounded by note date (YYYY-MM-DD).",
		InputSchema: inputSchema(map[string]any{
			"from":  map[string]any{"type": "string", "description": "Earliest note date, inclusive"},
			"to":    map[string]any{"type": "string", "description": "Latest note date, inclusive"},
			"limit": map[string]any{"type": "integer", "description": "Maximum rows (default 200)"},
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, req *listShiftNotesReq) (any, error) {
		return s.store.ListShiftNotes(ctx, req.From, req.To, req.Limit)
	})
}

type listLimitReq struct {
	Limit int `json:"limit"`
}

func (s *MCPService) registerListIncidents(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_list_incidents",
		Description: "List extracted incident reports, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum rows (default 100)"},
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, req *listLimitReq) (any, error) {
		return s.store.ListIncidents(ctx, req.Limit)
	})
}

func (s *MCPService) registerListInvestigations(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "carelog_list_investigations",
		Description: "List extracted incident investigations, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum rows (default 100)"},
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, req *listLimitReq) (any, error) {
		return s.store.ListInvestigations(ctx, req.Limit)
	})
}
