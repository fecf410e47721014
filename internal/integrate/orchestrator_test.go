package integrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"prototyper/internal/llm"
	"prototyper/internal/patcher"
	"prototyper/internal/response"
	"prototyper/internal/tree"
	"prototyper/internal/workspace"
)

const manifest = `{"version": 1, "projects": {"shop": {"root": "", "sourceRoot": "src"}}}`

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func newWorkspace(t *testing.T, files map[string]string) *tree.Memory {
	t.Helper()
	m := tree.NewMemory()
	for p, content := range files {
		require.NoError(t, m.Write(p, []byte(content)))
	}
	return m
}

func moduleWorkspace(t *testing.T) *tree.Memory {
	return newWorkspace(t, map[string]string{
		workspace.ManifestPath:  manifest,
		"src/app/app.module.ts": fixture(t, "app.module.ts"),
	})
}

func read(t *testing.T, tr tree.Tree, p string) string {
	t.Helper()
	data, err := tr.Read(p)
	require.NoError(t, err)
	return string(data)
}

func snapshot(t *testing.T, m *tree.Memory) map[string]string {
	out := make(map[string]string)
	for _, p := range m.Paths() {
		out[p] = read(t, m, p)
	}
	return out
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func TestIntegrate_StandaloneIntoModule(t *testing.T) {
	ws := moduleWorkspace(t)
	logger, logs := observed(zap.DebugLevel)

	res, err := NewOrchestrator(nil, ws, logger).Integrate(fixture(t, "standalone.txt"), Request{})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.NotEmpty(t, res.OperationID)
	assert.Equal(t, []string{
		"src/app/product-card/product-card.component.ts",
		"src/app/product-card/product-card.component.html",
		"src/app/product-card/product-card.component.scss",
	}, res.Written)
	require.NotNil(t, res.Primary)
	assert.Equal(t, "product-card", res.Primary.Artifact.ID)

	assert.True(t, res.Integrated)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "src/app/app.module.ts", res.Host)
	assert.Equal(t, "ProductCardComponent", res.Symbol)
	assert.Equal(t, patcher.InsertComposed, res.Kind)
	assert.Len(t, res.Edits, 2)

	host := read(t, ws, "src/app/app.module.ts")
	assert.Contains(t, host, "import { ProductCardComponent } from './product-card/product-card.component';")
	assert.Contains(t, host, "    AppRoutingModule,\n    ProductCardComponent\n  ],")
	assert.Contains(t, host, "  declarations: [\n    AppComponent\n  ],")
	assert.Equal(t, "", read(t, ws, "src/app/product-card/product-card.component.scss"))

	var states []string
	for _, e := range logs.FilterMessage("state").All() {
		states = append(states, e.ContextMap()["state"].(string))
	}
	assert.Equal(t, []string{"generated", "parsed", "staged", "located", "patched", "done"}, states)
}

func TestIntegrate_LegacyIntoDeclarations(t *testing.T) {
	ws := moduleWorkspace(t)

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "legacy.txt"), Request{})
	require.NoError(t, err)

	assert.True(t, res.Integrated)
	assert.Equal(t, patcher.InsertImport, res.Kind)
	host := read(t, ws, "src/app/app.module.ts")
	assert.Contains(t, host, "  declarations: [\n    AppComponent,\n    UserBadgeComponent\n  ],")
	assert.Contains(t, host, "import { UserBadgeComponent } from './user-badge/user-badge.component';")
	assert.Contains(t, host, "    BrowserModule,\n    AppRoutingModule\n  ],")
}

func TestIntegrate_StandaloneRootComponent(t *testing.T) {
	ws := newWorkspace(t, map[string]string{
		workspace.ManifestPath:     manifest,
		"src/app/app.component.ts": fixture(t, "app.component.ts"),
	})

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{})
	require.NoError(t, err)

	assert.True(t, res.Integrated)
	assert.Equal(t, "src/app/app.component.ts", res.Host)
	host := read(t, ws, "src/app/app.component.ts")
	assert.Contains(t, host, "imports: [RouterOutlet, ProductCardComponent],")
	assert.Contains(t, host, "import { ProductCardComponent } from \"./product-card/product-card.component\";")
}

func TestIntegrate_RepeatedRunsInsertOnce(t *testing.T) {
	ws := moduleWorkspace(t)
	o := NewOrchestrator(nil, ws, nil)
	raw := fixture(t, "standalone.txt")

	first, err := o.Integrate(raw, Request{})
	require.NoError(t, err)
	afterFirst := read(t, ws, "src/app/app.module.ts")

	second, err := o.Integrate(raw, Request{})
	require.NoError(t, err)

	assert.NotEqual(t, first.OperationID, second.OperationID)
	assert.True(t, second.Integrated)
	assert.Empty(t, second.Edits)
	host := read(t, ws, "src/app/app.module.ts")
	assert.Equal(t, afterFirst, host)
	assert.Equal(t, 2, strings.Count(host, "ProductCardComponent"))
}

func TestIntegrate_FatalErrorsLeaveTreeUntouched(t *testing.T) {
	t.Run("parse empty", func(t *testing.T) {
		ws := moduleWorkspace(t)
		before := snapshot(t, ws)

		res, err := NewOrchestrator(nil, ws, nil).Integrate("I cannot help with that.", Request{})
		assert.ErrorIs(t, err, response.ErrParseEmpty)
		assert.Equal(t, StateFailed, res.State)
		assert.NotEmpty(t, res.FailReason)
		assert.Equal(t, before, snapshot(t, ws))
	})

	t.Run("manifest not found", func(t *testing.T) {
		ws := tree.NewMemory()

		res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{})
		assert.ErrorIs(t, err, workspace.ErrManifestNotFound)
		assert.Equal(t, StateFailed, res.State)
		assert.Empty(t, res.Written)
		assert.Empty(t, ws.Paths())
	})

	t.Run("project not found", func(t *testing.T) {
		ws := moduleWorkspace(t)
		before := snapshot(t, ws)

		_, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{Project: "admin"})
		assert.ErrorIs(t, err, workspace.ErrProjectNotFound)
		assert.Equal(t, before, snapshot(t, ws))
	})
}

func TestIntegrate_NoHostFile(t *testing.T) {
	ws := newWorkspace(t, map[string]string{workspace.ManifestPath: manifest})
	logger, logs := observed(zap.WarnLevel)

	res, err := NewOrchestrator(nil, ws, logger).Integrate(fixture(t, "standalone.txt"), Request{})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.False(t, res.Integrated)
	assert.Len(t, res.Written, 3)
	assert.True(t, res.HasWarning(WarnIntegrationTargetMissing))
	assert.Contains(t, res.SkipReason, "manually")
	assert.Equal(t, 1, logs.FilterField(zap.String("code", string(WarnIntegrationTargetMissing))).Len())
}

func TestIntegrate_SkipImport(t *testing.T) {
	ws := moduleWorkspace(t)
	logger, logs := observed(zap.WarnLevel)

	res, err := NewOrchestrator(nil, ws, logger).Integrate(fixture(t, "standalone.txt"), Request{SkipImport: true})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.False(t, res.Integrated)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 0, logs.Len())
	assert.Equal(t, "integration skipped by request", res.SkipReason)
	assert.Equal(t, fixture(t, "app.module.ts"), read(t, ws, "src/app/app.module.ts"))
	assert.True(t, ws.Exists("src/app/product-card/product-card.component.ts"))
}

func TestIntegrate_ExplicitModuleWithoutManifest(t *testing.T) {
	ws := newWorkspace(t, map[string]string{
		"projects/admin/src/app/admin.module.ts": fixture(t, "app.module.ts"),
	})

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "legacy.txt"), Request{Module: "projects/admin/src/app/admin.module.ts"})
	require.NoError(t, err)

	assert.True(t, res.Integrated)
	assert.True(t, ws.Exists("projects/admin/src/app/user-badge/user-badge.component.ts"))
	assert.Contains(t, read(t, ws, "projects/admin/src/app/admin.module.ts"), "    AppComponent,\n    UserBadgeComponent\n")
}

func TestIntegrate_GrammarMismatch(t *testing.T) {
	hostSrc := "import { bootstrapApplication } from '@angular/platform-browser';\nexport const appConfig = {};\n"
	ws := newWorkspace(t, map[string]string{
		workspace.ManifestPath:  manifest,
		"src/app/app.module.ts": hostSrc,
	})

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.False(t, res.Integrated)
	assert.True(t, res.HasWarning(WarnPatchGrammarMismatch))
	assert.Len(t, res.Written, 3)
	assert.Equal(t, hostSrc, read(t, ws, "src/app/app.module.ts"))
}

// failingTree refuses writes to paths containing one of the fragments.
type failingTree struct {
	*tree.Memory
	failOn []string
}

func (f *failingTree) Write(p string, data []byte) error {
	for _, frag := range f.failOn {
		if strings.Contains(p, frag) {
			return errors.New("permission denied")
		}
	}
	return f.Memory.Write(p, data)
}

func TestIntegrate_PartialStaging(t *testing.T) {
	ws := &failingTree{Memory: moduleWorkspace(t), failOn: []string{"/alpha/"}}

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "multi.txt"), Request{})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 3, res.Artifacts)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "alpha", res.Failures[0].ArtifactID)
	assert.True(t, res.HasWarning(WarnArtifactWriteFailed))
	assert.Equal(t, []string{"src/app/beta/beta.component.ts"}, res.Written)

	require.NotNil(t, res.Primary)
	assert.Equal(t, "beta", res.Primary.Artifact.ID)
	assert.True(t, res.Integrated)
	host := read(t, ws, "src/app/app.module.ts")
	assert.Contains(t, host, "BetaComponent")
	assert.NotContains(t, host, "AlphaComponent")
}

func TestIntegrate_PrimaryWithoutScript(t *testing.T) {
	ws := &failingTree{Memory: moduleWorkspace(t), failOn: []string{"alpha.component.ts"}}

	res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "multi.txt"), Request{})
	require.NoError(t, err)

	require.NotNil(t, res.Primary)
	assert.Equal(t, "src/app/alpha/alpha.component.html", res.Primary.Files[response.Markup])
	assert.False(t, res.Integrated)
	assert.True(t, res.HasWarning(WarnNoPrimaryArtifact))
	assert.Equal(t, fixture(t, "app.module.ts"), read(t, ws, "src/app/app.module.ts"))
}

func TestIntegrate_UsageMarker(t *testing.T) {
	ws := moduleWorkspace(t)
	require.NoError(t, ws.Write("src/app/app.component.html", []byte("<router-outlet></router-outlet>")))
	o := NewOrchestrator(nil, ws, nil)
	req := Request{AddUsage: true, UsagePrefix: "app"}

	res, err := o.Integrate(fixture(t, "standalone.txt"), req)
	require.NoError(t, err)
	assert.Equal(t, "src/app/app.component.html", res.UsageFile)

	_, err = o.Integrate(fixture(t, "standalone.txt"), req)
	require.NoError(t, err)
	assert.Equal(t, "<router-outlet></router-outlet>\n<app-product-card></app-product-card>\n",
		read(t, ws, "src/app/app.component.html"))

	t.Run("no template", func(t *testing.T) {
		ws := moduleWorkspace(t)
		res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "legacy.txt"), req)
		require.NoError(t, err)
		assert.Empty(t, res.UsageFile)
		assert.False(t, ws.Exists("src/app/app.component.html"))
	})
}

func TestIntegrate_UsageMarkerAlreadyPresent(t *testing.T) {
	for name, tmpl := range map[string]string{
		"attributes on next line": "<app-product-card\n  [x]=\"1\"></app-product-card>\n",
		"tab before attribute":    "<app-product-card\t[x]=\"1\"></app-product-card>\n",
		"self closing":            "<app-product-card/>\n",
	} {
		t.Run(name, func(t *testing.T) {
			ws := moduleWorkspace(t)
			require.NoError(t, ws.Write("src/app/app.component.html", []byte(tmpl)))

			res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{AddUsage: true, UsagePrefix: "app"})
			require.NoError(t, err)

			assert.Empty(t, res.UsageFile)
			assert.Equal(t, tmpl, read(t, ws, "src/app/app.component.html"))
		})
	}

	t.Run("longer tag is not a match", func(t *testing.T) {
		ws := moduleWorkspace(t)
		require.NoError(t, ws.Write("src/app/app.component.html", []byte("<app-product-card-list></app-product-card-list>\n")))

		res, err := NewOrchestrator(nil, ws, nil).Integrate(fixture(t, "standalone.txt"), Request{AddUsage: true, UsagePrefix: "app"})
		require.NoError(t, err)

		assert.Equal(t, "src/app/app.component.html", res.UsageFile)
		assert.Equal(t, 1, strings.Count(read(t, ws, "src/app/app.component.html"), "<app-product-card>"))
	})
}

func TestRun(t *testing.T) {
	t.Run("prompts and integrates", func(t *testing.T) {
		ws := moduleWorkspace(t)
		var prompt string
		gen := llm.GeneratorFunc(func(_ context.Context, p string) (string, error) {
			prompt = p
			return fixture(t, "standalone.txt"), nil
		})

		res, err := NewOrchestrator(gen, ws, nil).Run(context.Background(), Request{
			Name:         "productCard",
			Prompt:       "a product card",
			CSSFramework: "Tailwind CSS",
		})
		require.NoError(t, err)

		assert.Contains(t, prompt, "### filename: product-card/product-card.component.ts ###")
		assert.Contains(t, prompt, "a product card")
		assert.Equal(t, StateDone, res.State)
		assert.True(t, res.Integrated)
	})

	t.Run("generator failure", func(t *testing.T) {
		ws := moduleWorkspace(t)
		before := snapshot(t, ws)
		gen := llm.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		})

		res, err := NewOrchestrator(gen, ws, nil).Run(context.Background(), Request{Name: "x"})
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.ErrorContains(t, err, "quota exceeded")
		assert.Equal(t, StateFailed, res.State)
		assert.Equal(t, before, snapshot(t, ws))
	})

	t.Run("no generator", func(t *testing.T) {
		_, err := NewOrchestrator(nil, tree.NewMemory(), nil).Run(context.Background(), Request{})
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "located", StateLocated.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
