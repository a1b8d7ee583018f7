package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"survey-app/internal/sessionclient"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "survey service base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout")
	exportDir := flag.String("export-dir", ".", "directory for the downloaded CSV export")
	flag.Parse()

	err := sessionclient.Run(context.Background(), os.Stdin, os.Stdout, sessionclient.Config{
		ServerURL:   *server,
		HTTPTimeout: *timeout,
		ExportDir:   *exportDir,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
