package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/ui"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// renderError turns an error into the line printed before exiting. With
// --verbose the full wrapped chain is shown.
func renderError(err error) string {
	if verbose {
		return ui.StylePrefixError.Render("Error: ") + err.Error()
	}

	var verr *validation.Error
	switch {
	case errors.Is(err, llm.ErrMissingCredentials):
		return ui.StylePrefixError.Render("✗ ") + err.Error() + "\n  Run `azubihub setup` to store a key."
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var sb strings.Builder
		sb.WriteString(ui.StylePrefixError.Render("✗ ") + "Invalid input\n")
		for _, f := range fields {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f, verr.Fields[f]))
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	return ui.StylePrefixError.Render("✗ ") + err.Error()
}
