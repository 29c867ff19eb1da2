package main

import (
	"github.com/hupe1980/rolemesh/config"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/mcp"
	"github.com/hupe1980/rolemesh/tool"
)

// toolProvider picks the executor's tools: an explicit MCP config, else the
// Google Maps server when a key is configured, else no tools.
func toolProvider(cfg *config.Config, logger logging.Logger) (tool.Provider, error) {
	withLogger := func(o *mcp.ToolkitOptions) { o.Logger = logger }

	if cfg.MCPConfigPath != "" {
		servers, err := mcp.LoadConfig(cfg.MCPConfigPath)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolkit(servers, withLogger), nil
	}

	if cfg.GoogleMapsAPIKey != "" {
		return mcp.NewToolkit(mcp.GoogleMapsServerConfig(cfg.GoogleMapsAPIKey), withLogger), nil
	}

	logger.Warn("tools.none", "hint", "set GOOGLE_MAPS_API_KEY or --mcp-config to enable tools")

	return tool.NewStaticProvider(), nil
}
