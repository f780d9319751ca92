package main

import (
	"fmt"
	"os"

	radarerrors "github.com/felixdelbarrio/bug-resolution-radar/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, fix := range radarerrors.GetSuggestedFixes(radarerrors.CodeOf(err)) {
			switch {
			case fix.Command != "":
				fmt.Fprintf(os.Stderr, "  hint: %s ($ %s)\n", fix.Description, fix.Command)
			case fix.Key != "":
				fmt.Fprintf(os.Stderr, "  hint: %s (%s)\n", fix.Description, fix.Key)
			default:
				fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
			}
		}
		os.Exit(1)
	}
}
