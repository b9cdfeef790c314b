package main

import (
	"fmt"
	"os"

	"fjacquet/statement-ledger/cmd/categories"
	"fjacquet/statement-ledger/cmd/categorize"
	"fjacquet/statement-ledger/cmd/ingest"
	"fjacquet/statement-ledger/cmd/month"
	"fjacquet/statement-ledger/cmd/root"
	"fjacquet/statement-ledger/cmd/summary"
	"fjacquet/statement-ledger/cmd/workflow"
	"fjacquet/statement-ledger/internal/config"
)

func init() {
	// .env must be in the environment before viper reads it
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(month.Cmd)
	root.Cmd.AddCommand(workflow.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(categories.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
