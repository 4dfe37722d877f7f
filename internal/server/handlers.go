package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/tag-tracker/internal/metrics"
	"github.com/ironsheep/tag-tracker/internal/record"
	"github.com/ironsheep/tag-tracker/internal/tracking"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "session_open", "tag_set").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if errors.Is(err, errInvalidParams) {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if err != nil {
		s.logger.WithError(err).WithField("tool", params.Name).Debug("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Every tool except session_open needs an open session and fails with
// tracking.ErrNoSession otherwise.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session lifecycle
	case "session_open":
		return s.handleSessionOpen(args)
	case "session_status":
		return s.withSession(func(sess *tracking.Session) (interface{}, error) {
			return sess.Status(), nil
		})
	case "session_save":
		return s.handleSessionSave()
	case "session_close":
		return s.handleSessionClose(args)
	case "session_metrics":
		return s.handleSessionMetrics(args)

	// Navigation
	case "frame_goto":
		return s.handleFrameGoto(args)
	case "frame_step":
		return s.handleFrameStep(args)
	case "frame_process":
		return s.withSession(func(sess *tracking.Session) (interface{}, error) {
			return sess.ProcessCurrent()
		})
	case "frame_preview":
		return s.handleFramePreview(args)
	case "tag_crop":
		return s.handleTagCrop(args)

	// Manual correction
	case "tag_set":
		return s.handleTagPoint(args, (*tracking.Session).SetTag)
	case "tag_click":
		return s.handleTagPoint(args, (*tracking.Session).Click)
	case "tag_delete":
		return s.handleTag(args, (*tracking.Session).DeleteTag)
	case "tag_clear":
		return s.handleTag(args, (*tracking.Session).ClearTag)
	case "arena_adjust":
		return s.handleArenaAdjust(args)

	// Continuous analysis
	case "analysis_run":
		return s.handleAnalysisRun(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// errInvalidParams marks tool arguments that are malformed or missing.
// handleToolsCall answers them with -32602 instead of -32000.
var errInvalidParams = errors.New("invalid params")

func invalidParams(err error) error {
	return fmt.Errorf("%w: %w", errInvalidParams, err)
}

// decodeArgs unmarshals tool arguments; absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

// parseTag resolves a tag argument.
func parseTag(name string) (record.Tag, error) {
	tag, err := record.ParseTag(name)
	if err != nil {
		return tag, invalidParams(err)
	}
	return tag, nil
}

func (s *Server) withSession(fn func(*tracking.Session) (interface{}, error)) (interface{}, error) {
	if s.session == nil {
		return nil, tracking.ErrNoSession
	}
	return fn(s.session)
}

func (s *Server) closeSession(save bool) error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close(save)
	s.session, s.analyzer = nil, nil
	return err
}

// === Session Handlers ===

type sessionOpenArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSessionOpen(args json.RawMessage) (interface{}, error) {
	var a sessionOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams(errors.New("path is required"))
	}
	if s.session != nil {
		return nil, fmt.Errorf("%w: %s", tracking.ErrSessionOpen, s.session.Dir)
	}

	sess, err := tracking.Open(a.Path, s.cfg,
		tracking.WithLogger(s.logger),
		tracking.WithCache(s.cache),
	)
	if err != nil {
		return nil, err
	}
	s.session = sess
	s.analyzer = tracking.NewAnalyzer(sess)

	return map[string]interface{}{
		"status": sess.Status(),
		"frame":  sess.Last(),
	}, nil
}

type saveResult struct {
	Path            string           `json:"path"`
	WalkingDistance int              `json:"walking_distance"`
	HeadMovement    int              `json:"head_movement"`
	Coverage        metrics.Coverage `json:"coverage"`
}

func newSaveResult(path string, rep metrics.Report) saveResult {
	return saveResult{
		Path:            path,
		WalkingDistance: int(rep.WalkingDistance),
		HeadMovement:    int(rep.HeadMovement),
		Coverage:        rep.Coverage,
	}
}

func (s *Server) handleSessionSave() (interface{}, error) {
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		rep, err := sess.Save()
		if err != nil {
			return nil, err
		}
		return newSaveResult(sess.ReportPath(), rep), nil
	})
}

type sessionCloseArgs struct {
	Save bool `json:"save"`
}

func (s *Server) handleSessionClose(args json.RawMessage) (interface{}, error) {
	var a sessionCloseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, tracking.ErrNoSession
	}
	dir := s.session.Dir
	if err := s.closeSession(a.Save); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"closed": dir,
		"saved":  a.Save,
	}, nil
}

type sessionMetricsArgs struct {
	Rows bool `json:"rows"`
}

func (s *Server) handleSessionMetrics(args json.RawMessage) (interface{}, error) {
	var a sessionMetricsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		rep := sess.Metrics()
		if !a.Rows {
			rep.Rows = nil
		}
		return rep, nil
	})
}

// === Navigation Handlers ===

type frameGotoArgs struct {
	Index int `json:"index"`
}

func (s *Server) handleFrameGoto(args json.RawMessage) (interface{}, error) {
	var a frameGotoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return sess.Goto(a.Index)
	})
}

type frameStepArgs struct {
	Delta int `json:"delta"`
}

func (s *Server) handleFrameStep(args json.RawMessage) (interface{}, error) {
	var a frameStepArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return sess.Step(a.Delta)
	})
}

type framePreviewArgs struct {
	Scale float64 `json:"scale"`
}

func (s *Server) handleFramePreview(args json.RawMessage) (interface{}, error) {
	var a framePreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return sess.Preview(a.Scale)
	})
}

type tagCropArgs struct {
	Tag   string  `json:"tag"`
	Size  int     `json:"size"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleTagCrop(args json.RawMessage) (interface{}, error) {
	var a tagCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 4.0
	}
	tag, err := parseTag(a.Tag)
	if err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return sess.Crop(tag, a.Size, a.Scale)
	})
}

// === Manual Correction Handlers ===

type tagArgs struct {
	Tag string `json:"tag"`
}

func (s *Server) handleTag(args json.RawMessage, op func(*tracking.Session, record.Tag) (tracking.FrameResult, error)) (interface{}, error) {
	var a tagArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	tag, err := parseTag(a.Tag)
	if err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return op(sess, tag)
	})
}

type tagPointArgs struct {
	Tag string `json:"tag"`
	X   *int   `json:"x"`
	Y   *int   `json:"y"`
}

func (s *Server) handleTagPoint(args json.RawMessage, op func(*tracking.Session, record.Tag, int, int) (tracking.FrameResult, error)) (interface{}, error) {
	var a tagPointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.X == nil || a.Y == nil {
		return nil, invalidParams(errors.New("x and y are required"))
	}
	tag, err := parseTag(a.Tag)
	if err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return op(sess, tag, *a.X, *a.Y)
	})
}

type arenaAdjustArgs struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
	DW int `json:"dw"`
	DH int `json:"dh"`
}

func (s *Server) handleArenaAdjust(args json.RawMessage) (interface{}, error) {
	var a arenaAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		res, err := sess.AdjustArena(a.DX, a.DY, a.DW, a.DH)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"arena": sess.Arena(),
			"frame": res,
		}, nil
	})
}

// === Continuous Analysis Handlers ===

type analysisRunArgs struct {
	MaxFrames int `json:"max_frames"`
}

func (s *Server) handleAnalysisRun(args json.RawMessage) (interface{}, error) {
	var a analysisRunArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *tracking.Session) (interface{}, error) {
		return s.analyzer.Run(context.Background(), a.MaxFrames)
	})
}
