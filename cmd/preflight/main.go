// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tn3w/statussentinel/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	services, err := config.LoadServices(cfg.ServicesFile, cfg)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("%s: %d service(s)", cfg.ServicesFile, len(services)))

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		warn("DATABASE_URL empty — results will live in memory and vanish on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.APIAddr == "" {
		warn("API_ADDR explicitly empty — status API disabled.")
	} else {
		ok("API_ADDR=" + cfg.APIAddr)
	}

	ok(fmt.Sprintf("interval=%s timeout=%s concurrency=%d", cfg.Interval, cfg.Timeout, cfg.Concurrency))
	ok("preflight passed")
}
