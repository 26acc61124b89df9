// Package main runs a single course lookup with the server's configuration
// and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/garyellow/triangulator-go/internal/app"
	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/config"
)

var (
	institutionFlag = flag.String("institution", "", "Source institution name")
	subjectFlag     = flag.String("subject", "", "Course subject code, e.g. BIOL")
	numberFlag      = flag.String("number", "", "Course number, e.g. 2251L")
	titleFlag       = flag.String("title", "", "Course title")
)

func main() {
	flag.Parse()
	if *subjectFlag == "" || *numberFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.LookupTimeout)
	defer cancel()

	a, err := app.Initialize(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close(context.Background()) }()

	res := a.Lookup(ctx, catalog.Query{
		Institution: *institutionFlag,
		Subject:     *subjectFlag,
		Number:      *numberFlag,
		Title:       *titleFlag,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil || !res.Success {
		os.Exit(1)
	}
}
