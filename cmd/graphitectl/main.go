package main

import (
	"errors"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			errorStyle.Fprintln(os.Stderr, "error: "+err.Error())
		}
		os.Exit(1)
	}
}
