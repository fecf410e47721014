package main

import (
	"fmt"
	"io"

	"prototyper/internal/integrate"
	"prototyper/internal/tree"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func printFailure(w io.Writer, res *integrate.Result, err error) {
	if res == nil {
		errColor.Fprintf(w, "❌ %v\n", err)
		return
	}
	errColor.Fprintf(w, "❌ %s (after %s): %v\n", res.FailReason, res.State, err)
	dimColor.Fprintf(w, "   operation %s, no files were changed\n", res.OperationID)
}

func printSummary(w io.Writer, res *integrate.Result) {
	okColor.Fprintf(w, "✅ %d file(s) written from %d artifact(s)\n", len(res.Written), res.Artifacts)
	for _, p := range res.Written {
		fmt.Fprintf(w, "   + %s\n", p)
	}
	for _, f := range res.Failures {
		warnColor.Fprintf(w, "   ! %s\n", f.Error())
	}

	switch {
	case res.Integrated && len(res.Edits) == 0:
		okColor.Fprintf(w, "🔗 %s already registers %s\n", res.Host, res.Symbol)
	case res.Integrated:
		okColor.Fprintf(w, "🔗 %s added to %s (%s)\n", res.Symbol, res.Host, res.Kind)
	default:
		warnColor.Fprintf(w, "⚠️  Not integrated: %s\n", res.SkipReason)
	}
	if res.UsageFile != "" {
		okColor.Fprintf(w, "🏷️  Usage tag appended to %s\n", res.UsageFile)
	}

	for _, warning := range res.Warnings {
		warnColor.Fprintf(w, "⚠️  [%s] %s\n", warning.Code, warning.Message)
	}
	dimColor.Fprintf(w, "   operation %s\n", res.OperationID)
}

func printPreview(w io.Writer, changes []tree.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "🧪 Dry run: nothing would change")
		return
	}
	fmt.Fprintf(w, "🧪 Dry run: %d file(s) would change\n", len(changes))
	for _, c := range changes {
		verb := "modify"
		if c.Created {
			verb = "create"
		}
		fmt.Fprintf(w, "\n--- %s %s\n", verb, c.Path)
		fmt.Fprint(w, tree.Preview(c))
	}
}
