// Package integrate drives one generation through parsing, staging, host
// resolution and patching, and reports what happened.
package integrate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prototyper/internal/inspect"
	"prototyper/internal/llm"
	"prototyper/internal/naming"
	"prototyper/internal/patcher"
	"prototyper/internal/response"
	"prototyper/internal/staging"
	"prototyper/internal/tree"
	"prototyper/internal/workspace"
)

var ErrGenerationFailed = errors.New("integrate: generation failed")

// Request carries the caller's options for one operation.
type Request struct {
	Name         string
	Prompt       string
	CSSFramework string

	Project    string
	Module     string
	SkipImport bool

	AddUsage    bool
	UsagePrefix string
}

// Orchestrator owns one generator and one project tree. It is not safe for
// concurrent use: an operation reads and writes the host file without locking.
type Orchestrator struct {
	gen    llm.Generator
	tree   tree.Tree
	logger *zap.Logger
}

func NewOrchestrator(gen llm.Generator, t tree.Tree, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{gen: gen, tree: t, logger: logger}
}

// operation is the bookkeeping of a single Run or Integrate call.
type operation struct {
	req    Request
	result *Result
	log    *zap.Logger
}

func (o *Orchestrator) begin(req Request) *operation {
	id := uuid.NewString()
	return &operation{
		req:    req,
		result: &Result{OperationID: id, State: StateStart},
		log:    o.logger.With(zap.String("operation", id), zap.String("name", req.Name)),
	}
}

func (op *operation) advance(s State, fields ...zap.Field) {
	op.result.State = s
	op.log.Debug("state", append([]zap.Field{zap.Stringer("state", s)}, fields...)...)
}

func (op *operation) fail(reason string, err error) (*Result, error) {
	op.result.State = StateFailed
	op.result.FailReason = reason
	op.log.Error("operation failed", zap.String("reason", reason), zap.Error(err))
	return op.result, err
}

func (op *operation) warn(code WarningCode, msg string) {
	op.result.Warnings = append(op.result.Warnings, Warning{Code: code, Message: msg})
	op.log.Warn(msg, zap.String("code", string(code)))
}

// Run prompts the generator and integrates its answer. The context bounds the
// generator call only; everything after it is synchronous.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	op := o.begin(req)
	if o.gen == nil {
		return op.fail("no generator configured", fmt.Errorf("%w: no generator configured", ErrGenerationFailed))
	}

	prompt := (&llm.PromptBuilder{CSSFramework: req.CSSFramework}).ComponentPrompt(req.Name, req.Prompt)
	op.log.Info("sending prompt", zap.Int("prompt_bytes", len(prompt)))
	raw, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		return op.fail("generation failed", fmt.Errorf("%w: %w", ErrGenerationFailed, err))
	}
	op.advance(StateGenerated, zap.Int("response_bytes", len(raw)))

	return o.integrate(op, raw)
}

// Integrate runs the pipeline on an already generated response.
func (o *Orchestrator) Integrate(raw string, req Request) (*Result, error) {
	op := o.begin(req)
	op.advance(StateGenerated, zap.Int("response_bytes", len(raw)))
	return o.integrate(op, raw)
}

func (o *Orchestrator) integrate(op *operation, raw string) (*Result, error) {
	res := op.result

	artifacts, err := response.Parse(raw)
	if err != nil {
		return op.fail("no usable artifacts in response", err)
	}
	res.Artifacts = len(artifacts)
	op.advance(StateParsed, zap.Int("artifacts", len(artifacts)))

	// Resolved before the first write so manifest errors leave the tree as it was.
	loc, err := workspace.Locate(o.tree, workspace.Options{
		Module:     op.req.Module,
		SkipImport: op.req.SkipImport,
		Project:    op.req.Project,
	})
	if err != nil {
		return op.fail("workspace resolution failed", err)
	}

	report := staging.Stage(o.tree, loc.Layout.AppDir(), artifacts)
	res.Written = report.Written
	res.Failures = report.Failures
	for _, f := range report.Failures {
		op.warn(WarnArtifactWriteFailed, f.Error())
	}
	if p, ok := report.Primary(); ok {
		res.Primary = &p
	}
	op.advance(StateStaged, zap.Int("written", len(report.Written)), zap.Int("failed", len(report.Failures)))

	res.Host = loc.Host
	op.advance(StateLocated, zap.String("host", loc.Host), zap.String("source_root", loc.Layout.SourceRoot))

	o.registerPrimary(op, loc)
	if op.req.AddUsage && res.Primary != nil {
		o.appendUsage(op, loc.Layout)
	}

	op.advance(StateDone, zap.Bool("integrated", res.Integrated))
	return res, nil
}

// registerPrimary patches the host so it references the primary artifact.
// Every way out of here is non-fatal.
func (o *Orchestrator) registerPrimary(op *operation, loc workspace.Location) {
	res := op.result

	switch {
	case !loc.Found() && op.req.SkipImport:
		res.SkipReason = loc.Reason
		op.log.Info("integration skipped", zap.String("reason", loc.Reason))
		return
	case !loc.Found():
		res.SkipReason = loc.Reason
		op.warn(WarnIntegrationTargetMissing, loc.Reason)
		return
	case res.Primary == nil:
		res.SkipReason = "no artifact was fully staged"
		op.warn(WarnNoPrimaryArtifact, res.SkipReason)
		return
	}

	scriptPath, ok := res.Primary.Files[response.Script]
	if !ok {
		res.SkipReason = fmt.Sprintf("primary artifact %s has no script", res.Primary.Artifact.ID)
		op.warn(WarnNoPrimaryArtifact, res.SkipReason)
		return
	}

	before, err := o.tree.Read(loc.Host)
	if err != nil {
		res.SkipReason = fmt.Sprintf("cannot read host %s", loc.Host)
		op.warn(WarnIntegrationTargetMissing, fmt.Sprintf("%s: %v", res.SkipReason, err))
		return
	}

	script, _ := res.Primary.Artifact.Content(response.Script)
	info := inspect.Inspect(script)
	res.Symbol = info.ClassName
	if res.Symbol == "" {
		res.Symbol = naming.SymbolName(scriptPath)
	}
	res.Kind = patcher.ChooseKind(script)

	req := patcher.Request{
		TargetFile: loc.Host,
		SymbolName: res.Symbol,
		ImportPath: patcher.ImportPath(loc.Host, scriptPath),
		Kind:       res.Kind,
	}
	after, edits, err := patcher.Patch(string(before), req)
	if err != nil {
		res.SkipReason = "host file does not match a supported shape"
		op.warn(WarnPatchGrammarMismatch, err.Error())
		return
	}
	if len(edits) == 0 {
		res.Integrated = true
		op.log.Info("host already references symbol", zap.String("symbol", res.Symbol))
		op.advance(StatePatched)
		return
	}
	if inspect.Valid(string(before)) && !inspect.Valid(after) {
		res.SkipReason = "patch would break host syntax"
		op.warn(WarnPatchGrammarMismatch, fmt.Sprintf("%s: patched %s no longer parses; left untouched", patcher.ErrGrammarMismatch, loc.Host))
		return
	}
	if err := o.tree.Write(loc.Host, []byte(after)); err != nil {
		res.SkipReason = fmt.Sprintf("cannot write host %s", loc.Host)
		op.warn(WarnIntegrationTargetMissing, fmt.Sprintf("%s: %v", res.SkipReason, err))
		return
	}

	res.Edits = edits
	res.Integrated = true
	op.log.Info("host patched",
		zap.String("host", loc.Host),
		zap.String("symbol", res.Symbol),
		zap.Stringer("kind", res.Kind),
		zap.Int("edits", len(edits)),
	)
	op.advance(StatePatched)
}

// appendUsage adds <tag></tag> to the root template when it exists and does
// not mention the tag yet.
func (o *Orchestrator) appendUsage(op *operation, layout workspace.Layout) {
	res := op.result
	tmpl := layout.RootTemplatePath()
	if !o.tree.Exists(tmpl) {
		op.log.Debug("no root template for usage marker", zap.String("path", tmpl))
		return
	}

	script, _ := res.Primary.Artifact.Content(response.Script)
	tag := inspect.Inspect(script).Selector
	if tag == "" {
		tag = naming.UsageTag(op.req.UsagePrefix, res.Primary.Artifact.SourcePath)
	}

	data, err := o.tree.Read(tmpl)
	if err != nil {
		op.warn(WarnUsageMarkerFailed, fmt.Sprintf("cannot read %s: %v", tmpl, err))
		return
	}
	content := string(data)
	if regexp.MustCompile("<" + regexp.QuoteMeta(tag) + `[\s/>]`).MatchString(content) {
		return
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += fmt.Sprintf("<%s></%s>\n", tag, tag)
	if err := o.tree.Write(tmpl, []byte(content)); err != nil {
		op.warn(WarnUsageMarkerFailed, fmt.Sprintf("cannot write %s: %v", tmpl, err))
		return
	}
	res.UsageFile = tmpl
}
