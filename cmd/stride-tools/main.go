package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/stride-agent/stride/internal/toolserver"
	"github.com/stride-agent/stride/internal/version"
)

func main() {
	workspace := flag.String("workspace", ".", "sandbox root for filesystem operations")
	dbDriver := flag.String("db-driver", "sqlite", "database driver: sqlite or postgres")
	dbDSN := flag.String("db-dsn", "", "database connection string (sqlite defaults to an in-memory sample database)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	// Stdout belongs to the MCP transport; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv, err := toolserver.New(toolserver.Options{
		Workspace: *workspace,
		DBDriver:  *dbDriver,
		DBDSN:     *dbDSN,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
