// Farrier: guidance-composition and workflow-gating MCP server.
//
// Farrier attaches normative guidance text ("hooks") to lifecycle
// points, composes the matching hooks into one RFC 2119-ordered
// document per query, and gates tool execution until required blocking
// hooks have completed.
//
// Usage:
//
//	farrier serve [config-path]   # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	farrierserver "github.com/HendryAvila/farrier/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		configPath := ""
		if len(os.Args) > 2 {
			configPath = os.Args[2]
		}
		if err := run(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("farrier v%s\n", farrierserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(configPath string) error {
	s, cleanup, err := farrierserver.New(configPath)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt: the stdio server exits when stdin
	// closes, but an interrupt must still run the deferred cleanup.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Farrier v%s - guidance-composition MCP server

Usage:
  farrier serve [config-path]   Start the MCP server on stdio.
                                Config defaults to ./farrier.yaml;
                                built-in defaults apply when absent.
  farrier version               Print the version.
  farrier help                  Show this help.

Farrier exposes tools (farrier_session_init, farrier_guidance,
farrier_complete_hook, farrier_register_hook, farrier_status), the
farrier-start prompt, and farrier:// resources over MCP.
`, farrierserver.Version)
}
