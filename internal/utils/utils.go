package utils

import (
	"fmt"
	"io"
	"os"
)

// ErrorOutput is where error reports are written.
var ErrorOutput io.Writer = os.Stderr

// ShowError prints a formatted error box. hint, when not empty, tells the user
// how to fix the problem (missing model files, empty enrollment folder...).
func ShowError(context string, err error, hint string) {
	fmt.Fprintf(ErrorOutput, "\n---------------------------------------------------------\n")
	fmt.Fprintf(ErrorOutput, "🚨 FACEREG ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(ErrorOutput, "DETAILS: %v\n", err)
	}
	if hint != "" {
		fmt.Fprintf(ErrorOutput, "\nHINT: %s\n", hint)
	}
	fmt.Fprintf(ErrorOutput, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for commands that cannot return an error.
func Die(context string, err error, hint string) {
	ShowError(context, err, hint)
	os.Exit(1)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
