// Package main is the entry point for the csv-import CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	_ "time/tzdata" // profile timezones without system zoneinfo

	"github.com/georgecao/Beancount-CSVImporter/cmd/csv-import/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
