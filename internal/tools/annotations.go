package tools

import "github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"

// ReadOnlyAnnotations describes an analysis that never changes anything and
// depends only on its arguments.
func ReadOnlyAnnotations() *protocol.ToolAnnotations {
	return &protocol.ToolAnnotations{
		ReadOnlyHint:    true,
		DestructiveHint: false,
		IdempotentHint:  true,
		OpenWorldHint:   false,
	}
}
