// Command cutter-mcp serves the conversion job queue to MCP clients over
// stdio. Agents can list and queue jobs and set the range a job converts;
// picking a range interactively is left to cutter.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/jwulff/cutter/internal/db"
	"github.com/jwulff/cutter/internal/jobserver"
	"github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

func main() {
	dbPath := flag.String("db", db.DefaultDBPath(), "job database path")
	flag.Parse()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)
	log.SetPrefix("cutter-mcp: ")

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	s := jobserver.New(store, version)
	if err := server.ServeStdio(s, server.WithErrorLogger(log.Default())); err != nil {
		log.Printf("serve: %v", err)
		store.Close()
		os.Exit(1)
	}
}
