package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lbdudc/mcp-fm-analyzer/internal/tools"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/version"
)

// Handler answers MCP requests on one connection.
type Handler struct {
	dispatcher *tools.Dispatcher
	log        *slog.Logger

	mu          sync.Mutex
	initialized bool
	clientInfo  protocol.Implementation
}

func NewHandler(dispatcher *tools.Dispatcher, log *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
	}
}

// Handle is a jsonrpc2 handler function; wrap it with
// jsonrpc2.HandlerWithError.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return protocol.ListToolsResult{Tools: h.dispatcher.Registry().Descriptors()}, nil
	case "tools/call":
		return h.handleCallTool(ctx, req)
	case "notifications/initialized":
		h.handleInitializedNotification()
		return struct{}{}, nil
	case "notifications/cancelled":
		// Calls run to completion; there is nothing to cancel.
		return struct{}{}, nil
	}

	if req.Notif {
		h.log.Debug("ignoring notification", "method", req.Method)
		return nil, nil
	}
	return nil, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: fmt.Sprintf("Method not found: %s", req.Method),
	}
}

func (h *Handler) handleInitialize(req *jsonrpc2.Request) (interface{}, error) {
	var params protocol.InitializeParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.clientInfo = params.ClientInfo
	h.mu.Unlock()

	negotiated := negotiateProtocolVersion(params.ProtocolVersion)
	h.log.Info("client connected",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol", negotiated)

	return protocol.InitializeResult{
		ProtocolVersion: negotiated,
		Capabilities: protocol.ServerCapabilities{
			Tools: &protocol.ToolsCapability{},
		},
		ServerInfo: protocol.Implementation{
			Name:    version.Name,
			Version: version.Version,
		},
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}

	return version.ProtocolVersion
}

func (h *Handler) handleInitializedNotification() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = true
}

func (h *Handler) handleCallTool(ctx context.Context, req *jsonrpc2.Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInternalError,
				Message: fmt.Sprintf("tool execution panicked: %v", r),
			}
			h.log.Error("tool panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	var params protocol.CallToolParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}

	if params.Name == "" {
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "tool name is required",
		}
	}

	h.mu.Lock()
	client, initialized := h.clientInfo.Name, h.initialized
	h.mu.Unlock()
	if !initialized {
		h.log.Warn("tool call before notifications/initialized", "tool", params.Name, "client", client)
	}
	h.log.Debug("tool call", "tool", params.Name, "client", client)

	res, err := h.dispatcher.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, toRPCError(err)
	}
	return res, nil
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return nil
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: fmt.Sprintf("failed to parse %s params: %v", req.Method, err),
		}
	}
	return nil
}

type errorData struct {
	Kind string `json:"kind"`
}

func toRPCError(err error) *jsonrpc2.Error {
	var coded tools.CodedError
	if !errors.As(err, &coded) {
		return &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInternalError,
			Message: err.Error(),
		}
	}

	rpcErr := &jsonrpc2.Error{
		Code:    int64(coded.Code()),
		Message: coded.Error(),
	}
	rpcErr.SetError(errorData{Kind: coded.Kind()})
	return rpcErr
}
