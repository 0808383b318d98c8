package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nicktill/tinygraphite/pkg/query"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warnStyle    = color.New(color.FgYellow, color.Bold)
	okStyle      = color.New(color.FgGreen, color.Bold)
	caretStyle   = color.New(color.FgBlue, color.Bold)
	labelStyle   = color.New(color.FgCyan)
	messageStyle = color.New(color.Bold)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printParseError shows the message and points at the offending rune.
//
//	error: Expected closing parenthesis instead found end of string
//	  | sum(
//	  |     ^
func printParseError(w io.Writer, target string, perr *query.Error) {
	fmt.Fprintln(w, errorStyle.Sprint("error: ")+messageStyle.Sprint(perr.Message))
	fmt.Fprintln(w, caretStyle.Sprint("  | ")+target)
	pad := strings.Repeat(" ", max(perr.Pos-1, 0))
	fmt.Fprintln(w, caretStyle.Sprint("  | ")+pad+caretStyle.Sprint("^"))
}
