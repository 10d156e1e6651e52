package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docktile mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'docktile mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := newFlagSet("serve", "docktile mcp serve [--path PATH]",
		"Start the MCP server on stdio. Tool calls are forwarded to the running daemon,\nso start 'docktile daemon' first.\n\nExample:\n  claude mcp add docktile -- docktile mcp serve")
	path := fs.String("path", "", "Config file path (default: ~/.config/docktile/config.yaml)")
	if code := parse(fs, args, 0, 0); code >= 0 {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		return fail(err)
	}
	// stdout carries the protocol; logs go to stderr.
	level := new(slog.LevelVar)
	level.Set(res.Config.SlogLevel())
	logger := newLogger(os.Stderr, level, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(res.Config.MCP.Name, ipc.NewClient(), logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server failed", "error", err)
		return 1
	}
	return 0
}
