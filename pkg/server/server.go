// Package server is the composition root for the MCP transport: it builds
// the store, resolver and tools, and wires them onto a stdio server. No
// scoring logic lives here.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ctxvitals/ctxvitals/pkg/config"
	"github.com/ctxvitals/ctxvitals/pkg/logger"
	"github.com/ctxvitals/ctxvitals/pkg/mcptools"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
	"github.com/ctxvitals/ctxvitals/pkg/store"
)

const serverName = "ctxvitals"

// New builds the MCP server and its dependencies. The returned cleanup
// closes the store and is always safe to call.
//
// Storage is optional: if the database cannot be opened, the server runs
// without the profile cache and without history, and says so in the log.
func New(cfg *config.Config, version string) (*server.MCPServer, func(), error) {
	cleanup := func() {}

	var st *store.SQLiteStore
	if path := cfg.StoragePath(); path != "" {
		opened, err := store.NewSQLiteStore(path)
		if err != nil {
			logger.WarnCF("server", "Storage unavailable, running without cache or history",
				map[string]interface{}{"path": path, "error": err.Error()})
		} else {
			st = opened
			cleanup = func() {
				if err := st.Close(); err != nil {
					logger.WarnCF("server", "Store close failed",
						map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}

	// A nil *SQLiteStore must stay a nil interface, not a typed nil.
	var cache resolver.Cache
	var rec mcptools.Recorder
	var hist mcptools.History
	if st != nil {
		cache = st
		rec = st
		hist = st
	}

	res := resolver.New(cache, cfg.Resolver.Endpoint)

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Estimate context-window health from coarse session signals. "+
			"Call context_health_check with the current token count and model to get a score, "+
			"status and prioritized remediation actions."),
	)

	check := mcptools.NewCheckTool(res, rec)
	s.AddTool(check.Definition(), check.Handle)

	history := mcptools.NewHistoryTool(hist)
	s.AddTool(history.Definition(), history.Handle)

	models := mcptools.NewModelsTool()
	s.AddTool(models.Definition(), models.Handle)

	logger.InfoCF("server", "MCP server configured",
		map[string]interface{}{"version": version, "persistence": st != nil})

	return s, cleanup, nil
}

// ServeStdio blocks serving MCP over stdin/stdout until the client
// disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
