package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/pack"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List charts that have insight packs",
	RunE:  runCharts,
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}

// ChartCLI describes one chart of the catalog
type ChartCLI struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Patterns []string `json:"patterns,omitempty"`
}

// ChartsResponseCLI is the charts command output
type ChartsResponseCLI struct {
	Charts []ChartCLI `json:"charts"`
}

func runCharts(cmd *cobra.Command, args []string) error {
	return printCharts(cmd, pack.DefaultCatalog())
}

func printCharts(cmd *cobra.Command, catalog *pack.Catalog) error {
	resp := &ChartsResponseCLI{}
	for _, id := range catalog.IDs() {
		ch, _ := catalog.Get(id)
		resp.Charts = append(resp.Charts, ChartCLI{ID: ch.ID, Title: ch.Title, Patterns: ch.Patterns})
	}
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
