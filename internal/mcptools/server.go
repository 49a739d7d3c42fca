package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the semantic diff tools registered.
func NewServer(svc *DiffService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "semdiff",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_code",
		Description: "Compare two versions of source code. Combines a structural diff of functions, classes, variables and imports with the semantic comparator, and returns a similarity score in [0,1], ranked differences, a summary and recommendations.",
	}, svc.AnalyzeCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_code",
		Description: "Extract the structure of one code version: functions, classes, variables, imports, complexity and lines of code. The structure is null when the code cannot be parsed.",
	}, svc.ParseCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_structures",
		Description: "Diff the structure of two code versions by name: added and removed functions, classes, variables and imports, plus complexity and line count deltas. Does not call the semantic comparator.",
	}, svc.CompareStructures)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_files",
		Description: "Analyze two source files on the server. The language is detected from the file names and contents when omitted.",
	}, svc.CompareFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_directories",
		Description: "Analyze every file present in both source trees and list the files found on only one side.",
	}, svc.CompareDirectories)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cache_stats",
		Description: "Report analysis counters: totals, cache hits and hit rate, structural and semantic successes, timing and cache size.",
	}, svc.CacheStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop every cached analysis result. Counters are kept.",
	}, svc.ClearCache)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_languages",
		Description: "List the accepted languages and whether each is parsed with a tree-sitter grammar or the regex fallback.",
	}, svc.ListLanguages)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
