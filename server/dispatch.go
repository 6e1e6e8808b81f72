package server

import (
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// shutdownMethod stops the server. It is answered by the transport itself
// rather than the registry.
const shutdownMethod = "server.shutdown"

// GetMethodRegistry returns a map of method names to handler functions
// This is used by both the HTTP and WebSocket endpoints
func GetMethodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"cursor":            handleCursor,
		"move_by":           handleMoveBy,
		"cursor_location":   handleCursorLocation,
		"click":             handleClick(1),
		"doubleclick":       handleClick(2),
		"tripleclick":       handleClick(3),
		"mousedown":         handleMouseDown,
		"mouseup":           handleMouseUp,
		"drag":              handleDrag,
		"type":              handleType,
		"hit":               handleHit,
		"launch":            handleLaunch,
		"screen_size":       handleScreenSize,
		"say":               handleSay,
		"direction":         handleDirection,
		"keys":              handleKeys,
		"screenplay_run":    handleScreenplayRun,
		"screenplay_stop":   handleScreenplayStop,
		"screenplay_status": handleScreenplayStatus,
	}
}

// Execute dispatches a method call using the registry
// This is the main entry point for embedded clients
func Execute(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	registry := GetMethodRegistry()

	handler, exists := registry[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(ctx, params)
}
