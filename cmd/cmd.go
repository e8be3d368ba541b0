// Package cmd the mqjs commands
package cmd

import (
	"errors"
	"os"
)

// errScriptFailed the script ended with an uncaught exception, already reported
var errScriptFailed = errors.New("script raised an exception")

// Execute main command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errScriptFailed) {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}
