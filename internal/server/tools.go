package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func schema(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

var tagProp = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"head", "tail"},
	"description": "Which tag: head or tail (tail-base)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	noArgs := schema(map[string]interface{}{})

	return []Tool{
		// Session lifecycle
		{
			Name:        "session_open",
			Description: "Open a directory of frame images (f000001.jpg, f000002.jpg, ...) and process the first frame. Resumes from <dir>.csv when it exists.",
			InputSchema: schema(map[string]interface{}{
				"path": prop("string", "Absolute path to the frame directory"),
			}, "path"),
		},
		{
			Name:        "session_status",
			Description: "Report the open session: identifier, frame count, current frame and its tag positions, arena rectangle.",
			InputSchema: noArgs,
		},
		{
			Name:        "session_save",
			Description: "Compute walking distance, head movement and detection coverage, and write the report to <dir>.csv.",
			InputSchema: noArgs,
		},
		{
			Name:        "session_close",
			Description: "Close the open session, optionally saving the report first. Unsaved records are discarded.",
			InputSchema: schema(map[string]interface{}{
				"save": prop("boolean", "Save the report before closing. Default false"),
			}),
		},
		{
			Name:        "session_metrics",
			Description: "Compute the session metrics without writing the report.",
			InputSchema: schema(map[string]interface{}{
				"rows": prop("boolean", "Include one row per frame. Default false"),
			}),
		},

		// Navigation
		{
			Name:        "frame_goto",
			Description: "Jump to a 1-based frame index (clamped to the session) and process it. Stops continuous analysis.",
			InputSchema: schema(map[string]interface{}{
				"index": prop("integer", "Frame index, 1-based"),
			}, "index"),
		},
		{
			Name:        "frame_step",
			Description: "Move by a number of frames (e.g. 1, -1, 60, -1000), clamped, and process the new frame. Stops continuous analysis.",
			InputSchema: schema(map[string]interface{}{
				"delta": prop("integer", "Frames to move; negative goes back"),
			}, "delta"),
		},
		{
			Name:        "frame_process",
			Description: "Re-run tag location on the current frame. User-set and deleted positions are kept.",
			InputSchema: noArgs,
		},
		{
			Name:        "frame_preview",
			Description: "Render the current frame with tag markers, the arena outline (red after a detection failure) and the head-to-center line as base64 PNG.",
			InputSchema: schema(map[string]interface{}{
				"scale": prop("number", "Scale factor. Default from configuration (0.5)"),
			}),
		},
		{
			Name:        "tag_crop",
			Description: "Crop a close-up around a resolved tag in the current frame as base64 PNG.",
			InputSchema: schema(map[string]interface{}{
				"tag":   tagProp,
				"size":  prop("integer", "Half-width of the crop in pixels. Default twice the tag size"),
				"scale": prop("number", "Scale factor. Default 4.0"),
			}, "tag"),
		},

		// Manual correction
		{
			Name:        "tag_set",
			Description: "Set a tag's position in the current frame. Automatic detection never overwrites it.",
			InputSchema: schema(map[string]interface{}{
				"tag": tagProp,
				"x":   prop("integer", "X coordinate in frame pixels"),
				"y":   prop("integer", "Y coordinate in frame pixels"),
			}, "tag", "x", "y"),
		},
		{
			Name:        "tag_delete",
			Description: "Mark a tag as deleted (absent) in the current frame.",
			InputSchema: schema(map[string]interface{}{"tag": tagProp}, "tag"),
		},
		{
			Name:        "tag_clear",
			Description: "Forget a tag's position in the current frame so it is detected again.",
			InputSchema: schema(map[string]interface{}{"tag": tagProp}, "tag"),
		},
		{
			Name:        "tag_click",
			Description: "Click at a point: inside the marker of a resolved tag deletes it, elsewhere places the tag there.",
			InputSchema: schema(map[string]interface{}{
				"tag": tagProp,
				"x":   prop("integer", "X coordinate in frame pixels"),
				"y":   prop("integer", "Y coordinate in frame pixels"),
			}, "tag", "x", "y"),
		},
		{
			Name:        "arena_adjust",
			Description: "Move the arena rectangle by (dx, dy) and grow its bottom-right corner by (dw, dh), then re-process the current frame.",
			InputSchema: schema(map[string]interface{}{
				"dx": prop("integer", "Horizontal shift"),
				"dy": prop("integer", "Vertical shift"),
				"dw": prop("integer", "Width change"),
				"dh": prop("integer", "Height change"),
			}),
		},

		// Continuous analysis
		{
			Name:        "analysis_run",
			Description: "Advance frame by frame until a tag is unresolved, detection fails, the last frame is reached, or max_frames have been processed.",
			InputSchema: schema(map[string]interface{}{
				"max_frames": prop("integer", "Stop after this many frames. Default 0 (no limit)"),
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
