// Package mcp implements a minimal Model Context Protocol client over the
// stdio transport and a Toolkit that exposes the tools of one or more MCP
// servers as tool.Tool values behind the tool.Provider lifecycle.
//
// A typical configuration launches the Google Maps server through npx:
//
//	cfg := mcp.GoogleMapsServerConfig(os.Getenv("GOOGLE_MAPS_API_KEY"))
//	kit := mcp.NewToolkit(cfg)
//	if err := kit.Connect(ctx); err != nil { ... }
//	defer kit.Disconnect(context.Background())
package mcp
