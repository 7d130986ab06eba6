package version

const (
	Name    = "UVL Analizer"
	Version = "1.0.0"

	// ProtocolVersion is the MCP revision offered when the client asks for
	// one this server does not know.
	ProtocolVersion = "2025-06-18"
)

var SupportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}
