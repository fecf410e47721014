package integrate

import (
	"prototyper/internal/patcher"
	"prototyper/internal/staging"
)

// State is a step of one integration operation. Transitions only move forward.
type State int

const (
	StateStart State = iota
	StateGenerated
	StateParsed
	StateStaged
	StateLocated
	StatePatched
	StateDone
	StateFailed
)

var stateNames = [...]string{"start", "generated", "parsed", "staged", "located", "patched", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// WarningCode classifies a non-fatal condition.
type WarningCode string

const (
	WarnArtifactWriteFailed      WarningCode = "ArtifactWriteFailed"
	WarnIntegrationTargetMissing WarningCode = "IntegrationTargetMissing"
	WarnPatchGrammarMismatch     WarningCode = "PatchGrammarMismatch"
	WarnNoPrimaryArtifact        WarningCode = "NoPrimaryArtifact"
	WarnUsageMarkerFailed        WarningCode = "UsageMarkerFailed"
)

type Warning struct {
	Code    WarningCode
	Message string
}

// Result is the per-operation summary shown to the user.
type Result struct {
	OperationID string
	State       State
	// FailReason is set when State is StateFailed.
	FailReason  string

	Artifacts int
	Written   []string
	Failures  []*staging.WriteError
	Primary   *staging.Staged

	Host       string
	Symbol     string
	Kind       patcher.InsertionKind
	Edits      []patcher.Edit
	Integrated bool
	SkipReason string

	// UsageFile is the template that received a usage marker, if any.
	UsageFile string
	Warnings  []Warning
}

// HasWarning reports whether a warning with code was recorded.
func (r *Result) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
