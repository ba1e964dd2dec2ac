// Package main provides the datson command line tool.
//
// Usage:
//
//	datsonctl [flags] <command> [args]
//
// Commands:
//
//	notes   - Map series onto MIDI notes
//	chords  - Map series onto permuted chords
//	drone   - Collapse a series into a drone chord
//	cc      - Map a series onto CC messages
//	stats   - Run a statistics operation
//	fetch   - Fetch weather data
//	export  - Write mapped streams into a Standard MIDI File
//
// Request bodies are read from the -f file (YAML or JSON) or stdin, in the
// same shape as the HTTP API accepts them.
package main

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/datson-api/cmd/datsonctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
