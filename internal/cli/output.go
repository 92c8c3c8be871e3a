package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sakif/foodgram/internal/apperror"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // input rejected: bad CSV row, invalid tag, duplicate slug
	ExitCommandError = 2 // could not run at all: unreadable file, broken database
)

// GetExitCode maps an error returned by a command onto an exit code.
// Rejections raised by the services count as ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return ExitFailure
	}
	return ExitCommandError
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Result prints v as indented JSON, or text through fmt.Fprintln otherwise.
func (f *OutputFormatter) Result(v any, text string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
