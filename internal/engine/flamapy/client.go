package flamapy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
)

var (
	ErrNotInitialized    = errors.New("flamapy session not initialized")
	ErrAlreadyClosed     = errors.New("flamapy session already closed")
	ErrEngineUnavailable = errors.New("flamapy engine unavailable")
)

// codeEngineUnavailable is sent by the worker when flamapy cannot be imported.
const codeEngineUnavailable = -32001

type WorkerInfo struct {
	Engine  string `json:"engine"`
	Version string `json:"version"`
}

type initializeParams struct {
	ModelPath string `json:"modelPath"`
}

type operationParams struct {
	Argument *string `json:"argument,omitempty"`
}

// client is the JSON-RPC side of one worker process.
type client struct {
	conn         *jsonrpc2.Conn
	requestCount int64
}

func newClient(ctx context.Context, rwc io.ReadWriteCloser, log *slog.Logger) *client {
	c := &client{}
	stream := jsonrpc2.NewBufferedStream(rwc, protocol.LineCodec{})
	c.conn = jsonrpc2.NewConn(ctx, stream,
		jsonrpc2.HandlerWithError(c.handle),
		jsonrpc2.SetLogger(slog.NewLogLogger(log.Handler(), slog.LevelWarn)),
	)
	return c
}

// handle rejects anything the worker sends on its own; it only answers.
func (c *client) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("unexpected worker request: %s", req.Method),
	}
}

func (c *client) initialize(ctx context.Context, modelPath string) (WorkerInfo, error) {
	var info WorkerInfo
	err := c.call(ctx, "initialize", initializeParams{ModelPath: modelPath}, &info)
	return info, err
}

func (c *client) operation(ctx context.Context, method string, argument *string, result interface{}) error {
	return c.call(ctx, method, operationParams{Argument: argument}, result)
}

func (c *client) shutdown(ctx context.Context) error {
	var ack bool
	return c.call(ctx, "shutdown", nil, &ack)
}

func (c *client) call(ctx context.Context, method string, params, result interface{}) error {
	atomic.AddInt64(&c.requestCount, 1)

	err := c.conn.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == codeEngineUnavailable {
			return fmt.Errorf("%w: %s", ErrEngineUnavailable, rpcErr.Message)
		}
		return &EngineError{Method: method, Message: rpcErr.Message}
	}
	return err
}

func (c *client) disconnected() <-chan struct{} {
	return c.conn.DisconnectNotify()
}

func (c *client) close() error {
	return c.conn.Close()
}

// EngineError is a failure reported by flamapy itself, such as a model it
// cannot parse or a configuration file it cannot read.
type EngineError struct {
	Method  string
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// workerNumber is a numeric result. JSON has no infinities or NaN, so the
// worker sends those as {"nonFinite": "Infinity" | "-Infinity" | "NaN"}.
type workerNumber float64

func (n *workerNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '{' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*n = workerNumber(f)
		return nil
	}

	var tagged struct {
		NonFinite string `json:"nonFinite"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.NonFinite {
	case "Infinity":
		*n = workerNumber(math.Inf(1))
	case "-Infinity":
		*n = workerNumber(math.Inf(-1))
	case "NaN":
		*n = workerNumber(math.NaN())
	default:
		return fmt.Errorf("unknown non-finite number %q", tagged.NonFinite)
	}
	return nil
}
