package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/castanaut/castanaut/config"
	"github.com/castanaut/castanaut/server"
	"github.com/sevlyar/go-daemon"
)

const (
	// DaemonEnvVar marks the detached server process
	DaemonEnvVar = "CASTANAUT_DAEMON_CHILD"

	shutdownRequestID = 1
)

// Daemonize detaches the process. The returned process is nil in the
// child and non-nil in the parent.
func Daemonize() (*os.Process, error) {
	// the server logs through its own configured sink
	ctx := &daemon.Context{
		WorkDir: "/",
		Umask:   027,
		Args:    os.Args,
		Env:     append(os.Environ(), fmt.Sprintf("%s=1", DaemonEnvVar)),
	}

	child, err := ctx.Reborn()
	if err != nil {
		return nil, fmt.Errorf("failed to daemonize: %w", err)
	}

	return child, nil
}

// IsChild returns true if this is the daemon child process
func IsChild() bool {
	return os.Getenv(DaemonEnvVar) == "1"
}

// ServerURL turns a listen address into the server's base URL. An empty
// address means the default one.
func ServerURL(addr string) (string, error) {
	if addr == "" {
		addr = config.DefaultListenAddress
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	addr, err := server.NormalizeAddr(addr)
	if err != nil {
		return "", err
	}
	return "http://" + addr, nil
}

// KillServer asks a running server to stop. The server stops any
// screenplay it is running before it exits.
func KillServer(addr string) error {
	base, err := ServerURL(addr)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(server.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "server.shutdown",
		ID:      shutdownRequestID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodPost, base+"/rpc", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return fmt.Errorf("server is not running on %s", base)
		}
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned error: %s", resp.Status)
	}

	var out server.JSONRPCResponse
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("unexpected response from %s: %w", base, err)
	}
	if out.Error != nil {
		return fmt.Errorf("server refused shutdown: %v", out.Error)
	}
	return nil
}
