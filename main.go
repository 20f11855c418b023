package main

import (
	"fmt"
	"os"

	"github.com/SrGnis/Hub01-Shop-API-Tools/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the hub01 publishing command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
