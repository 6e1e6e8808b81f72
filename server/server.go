package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/castanaut/castanaut/commands"
	"github.com/castanaut/castanaut/utils"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Internal error: Internal JSON-RPC error
	ErrCodeInternalError = -32603
)

// Server timeouts
const (
	ReadTimeout     = 10 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 5 * time.Second
)

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// paramsError marks a handler failure caused by the request's params.
type paramsError struct {
	msg string
}

func (e *paramsError) Error() string {
	return e.msg
}

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{msg: fmt.Sprintf(format, args...)}
}

// errorCode maps a handler error to its JSON-RPC code.
func errorCode(err error) (int, string) {
	var pe *paramsError
	if errors.As(err, &pe) {
		return ErrCodeInvalidParams, "Invalid params"
	}
	return ErrCodeServerError, "Server error"
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewHandler returns the server's routes. shutdown is called once a
// server.shutdown request has been answered; it may be nil.
func NewHandler(enableCORS bool, shutdown func()) http.Handler {
	var once sync.Once
	stop := func() {
		if shutdown != nil {
			once.Do(shutdown)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		handleJSONRPC(w, r, stop)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, enableCORS, stop)
	})

	if enableCORS {
		return corsMiddleware(mux)
	}
	return mux
}

// NormalizeAddr turns a bare port into a listen address.
func NormalizeAddr(addr string) (string, error) {
	// if host is missing, default to localhost
	if !strings.Contains(addr, ":") {
		port, err := strconv.Atoi(addr)
		if err != nil {
			return "", fmt.Errorf("invalid port: %v", err)
		}
		addr = fmt.Sprintf("localhost:%d", port)
	}
	return addr, nil
}

func StartServer(addr string, enableCORS bool) error {
	addr, err := NormalizeAddr(addr)
	if err != nil {
		return err
	}
	if !utils.IsAddrAvailable(addr) {
		return fmt.Errorf("address %s is already in use", addr)
	}

	server := &http.Server{
		Addr:        addr,
		ReadTimeout: ReadTimeout,
		IdleTimeout: IdleTimeout,
	}

	done := make(chan struct{})
	server.Handler = NewHandler(enableCORS, func() {
		go func() {
			defer close(done)
			ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()

			utils.Info("Shutting down server...")
			commands.StopRunCommand()
			_ = commands.WaitRun(ctx)

			if err := server.Shutdown(ctx); err != nil {
				utils.Warn("server shutdown: %v", err)
			}
		}()
	})

	utils.Info("Starting server on http://%s...", server.Addr)
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func handleJSONRPC(w http.ResponseWriter, r *http.Request, shutdown func()) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	if req.Method == "" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	}

	utils.Verbose("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	if req.Method == shutdownMethod {
		sendJSONRPCResponse(w, req.ID, okResponse)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		shutdown()
		return
	}

	handler, exists := GetMethodRegistry()[req.Method]
	if !exists {
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method))
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		utils.Verbose("Error executing method %s: %v", req.Method, err)
		code, message := errorCode(err)
		sendJSONRPCError(w, req.ID, code, message, err.Error())
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}

// decodeParams unmarshals required params into v.
func decodeParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 {
		return invalidParams("'params' is required with fields: %s", fields)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams("invalid parameters: %v. Expected fields: %s", err, fields)
	}
	return nil
}

// decodeOptionalParams unmarshals params into v when present.
func decodeOptionalParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	return decodeParams(params, v, fields)
}

// requireFields rejects params missing any of the named fields, for
// fields whose zero value is meaningful.
func requireFields(params json.RawMessage, fields ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return invalidParams("invalid parameters format")
	}
	for _, field := range fields {
		if _, exists := raw[field]; !exists {
			return invalidParams("'%s' is required", field)
		}
	}
	return nil
}

// result unwraps a command response into a JSON-RPC result.
func result(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	if response.Data == nil {
		return okResponse, nil
	}
	return response.Data, nil
}

func handleCursor(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.CursorRequest
	if err := decodeParams(params, &req, "x, y"); err != nil {
		return nil, err
	}
	if err := requireFields(params, "x", "y"); err != nil {
		return nil, err
	}
	return result(commands.CursorCommand(ctx, req))
}

func handleMoveBy(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.MoveByRequest
	if err := decodeParams(params, &req, "dx, dy"); err != nil {
		return nil, err
	}
	return result(commands.MoveByCommand(ctx, req))
}

func handleCursorLocation(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.CursorLocationCommand(ctx))
}

func handleClick(count int) HandlerFunc {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var req commands.ButtonRequest
		if err := decodeOptionalParams(params, &req, "button"); err != nil {
			return nil, err
		}
		return result(commands.ClickCommand(ctx, commands.ClickRequest{Button: req.Button, Count: count}))
	}
}

func handleMouseDown(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.ButtonRequest
	if err := decodeOptionalParams(params, &req, "button"); err != nil {
		return nil, err
	}
	return result(commands.MouseDownCommand(ctx, req))
}

func handleMouseUp(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.ButtonRequest
	if err := decodeOptionalParams(params, &req, "button"); err != nil {
		return nil, err
	}
	return result(commands.MouseUpCommand(ctx, req))
}

func handleDrag(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.CursorRequest
	if err := decodeParams(params, &req, "x, y"); err != nil {
		return nil, err
	}
	if err := requireFields(params, "x", "y"); err != nil {
		return nil, err
	}
	return result(commands.DragCommand(ctx, req))
}

func handleType(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.TypeRequest
	if err := decodeParams(params, &req, "text, speed, applescript"); err != nil {
		return nil, err
	}
	return result(commands.TypeCommand(ctx, req))
}

func handleHit(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.HitRequest
	if err := decodeParams(params, &req, "key, modifiers"); err != nil {
		return nil, err
	}
	return result(commands.HitCommand(ctx, req))
}

func handleLaunch(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.LaunchRequest
	if err := decodeParams(params, &req, "app, left, top, width, height"); err != nil {
		return nil, err
	}
	return result(commands.LaunchCommand(ctx, req))
}

func handleScreenSize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.ScreenSizeCommand(ctx))
}

func handleSay(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.SayRequest
	if err := decodeParams(params, &req, "text"); err != nil {
		return nil, err
	}
	return result(commands.SayCommand(ctx, req))
}

func handleDirection(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.DirectionRequest
	if err := decodeParams(params, &req, "name, args"); err != nil {
		return nil, err
	}
	return result(commands.DirectionCommand(ctx, req))
}

func handleKeys(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.KeysCommand())
}

func handleScreenplayRun(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.RunRequest
	if err := decodeParams(params, &req, "path, noMonitor, dryRun"); err != nil {
		return nil, err
	}
	return result(commands.StartRunCommand(req))
}

func handleScreenplayStop(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.StopRunCommand())
}

func handleScreenplayStatus(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return result(commands.RunStatusCommand())
}
