// Standalone mock Medusa server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/searchwatch serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/searchwatch/example/mockmedusa"
)

func main() {
	fmt.Println("Mock Medusa server starting on :9999")
	fmt.Println("Forced searches cycle through: queued → searching → refresh → finished")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv := mockmedusa.New(mockmedusa.DefaultTiming, nil)
	if err := http.ListenAndServe(":9999", srv.Handler()); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
