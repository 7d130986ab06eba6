package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/lbdudc/mcp-fm-analyzer/internal/tools"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
)

type Server struct {
	dispatcher *tools.Dispatcher
	log        *slog.Logger
}

func NewServer(dispatcher *tools.Dispatcher, log *slog.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		log:        log,
	}
}

// Serve speaks MCP over rwc until the peer disconnects or ctx is done.
// Requests are handled one at a time in arrival order.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	handler := NewHandler(s.dispatcher, s.log)
	stream := jsonrpc2.NewBufferedStream(rwc, protocol.LineCodec{})
	conn := jsonrpc2.NewConn(ctx, stream,
		jsonrpc2.HandlerWithError(handler.Handle),
		jsonrpc2.SetLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelWarn)),
	)

	s.log.Debug("serving MCP", "tools", len(s.dispatcher.Registry().Names()))

	defer conn.Close()

	select {
	case <-conn.DisconnectNotify():
		s.log.Debug("client disconnected")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
