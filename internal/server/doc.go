// Package server implements the MCP (Model Context Protocol) server that drives
// a tag tracking review session.
//
// This package provides a JSON-RPC 2.0 server that exposes the tracker's
// session, navigation, correction and analysis operations as MCP tools. A
// client steps through a session of frame images, inspects previews, fixes
// tag positions by hand and saves the per-frame locomotion report.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session:
//   - session_open: Open a frame directory, resuming from <dir>.csv if present
//   - session_status: Current frame, arena and record
//   - session_save: Write the report and return the totals
//   - session_close: End the session, optionally saving first
//   - session_metrics: Totals and coverage, optionally with per-frame rows
//
// Navigation:
//   - frame_goto: Jump to a frame and process it
//   - frame_step: Move by a signed number of frames
//   - frame_process: Re-run detection on the current frame
//   - frame_preview: Annotated PNG of the current frame
//   - tag_crop: Close-up around a resolved tag
//
// Manual correction:
//   - tag_set: Place a tag at a pixel
//   - tag_click: Delete a tag when clicking on it, otherwise place it
//   - tag_delete: Mark a tag as absent
//   - tag_clear: Drop an override so detection runs again
//   - arena_adjust: Move and resize the arena
//
// Continuous analysis:
//   - analysis_run: Advance until a halt condition or a frame limit
//
// Only one session is open at a time. Tools other than session_open fail with
// tracking.ErrNoSession until one is.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
