package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"prototyper/internal/config"
	"prototyper/internal/integrate"
	"prototyper/internal/llm"
	"prototyper/internal/tree"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rootCmd = &cobra.Command{
		Use:   "prototyper",
		Short: "Generate Angular components with an LLM and wire them into your workspace",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	logger     *zap.Logger
	verbose    bool
	configPath string
	opts       runOptions
)

// runOptions are the flags shared by generate and integrate.
type runOptions struct {
	root       string
	name       string
	project    string
	module     string
	skipImport bool
	addUsage   bool
	dryRun     bool
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "prototyper.yaml", "Path to the config file")

	for _, cmd := range []*cobra.Command{generateCmd, integrateCmd} {
		f := cmd.Flags()
		f.StringVarP(&opts.name, "name", "n", "", "Component name (e.g. product-card)")
		f.StringVar(&opts.root, "root", "", "Workspace root (defaults to project.root from config, then the current directory)")
		f.StringVar(&opts.project, "project", "", "Workspace project; defaults to the manifest's default project")
		f.StringVar(&opts.module, "module", "", "Host file to register the component in, relative to the root")
		f.BoolVar(&opts.skipImport, "skip-import", false, "Write the files but do not touch any host file")
		f.BoolVar(&opts.addUsage, "add-usage", false, "Append a usage tag to the root component template")
		f.BoolVar(&opts.dryRun, "dry-run", false, "Show the changes without writing them")
	}
	generateCmd.Flags().StringP("prompt", "p", "", "What the component should do")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("prompt")
	integrateCmd.Flags().StringP("response", "r", "-", "Saved model response to integrate (- reads stdin)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(integrateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask the model for a component, then stage and register it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		prompt, _ := cmd.Flags().GetString("prompt")

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AI.Timeout)
		defer cancel()

		gen, err := llm.NewGenerator(ctx, llm.Options{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			BaseURL:  cfg.AI.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create generator: %w", err)
		}

		fmt.Printf("🤖 Asking %s (%s) for %q...\n", cfg.AI.Provider, cfg.AI.Model, opts.name)
		return execute(cfg, gen, func(o *integrate.Orchestrator, req integrate.Request) (*integrate.Result, error) {
			req.Prompt = prompt
			return o.Run(ctx, req)
		})
	},
}

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Stage and register a previously saved model response",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		src, _ := cmd.Flags().GetString("response")
		raw, err := readResponse(src, cmd.InOrStdin())
		if err != nil {
			return err
		}

		fmt.Printf("📄 Integrating saved response (%d bytes)...\n", len(raw))
		return execute(cfg, nil, func(o *integrate.Orchestrator, req integrate.Request) (*integrate.Result, error) {
			return o.Integrate(raw, req)
		})
	},
}

func readResponse(src string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}

// execute builds the tree and orchestrator for one command, runs it and
// prints the summary. Dry runs go through an overlay that is never committed.
func execute(cfg *config.Config, gen llm.Generator, run func(*integrate.Orchestrator, integrate.Request) (*integrate.Result, error)) error {
	root := opts.root
	if root == "" {
		root = cfg.Project.Root
	}
	if root == "" {
		root = "."
	}

	var t tree.Tree = tree.NewDisk(root)
	var overlay *tree.Overlay
	if opts.dryRun {
		overlay = tree.NewOverlay(t)
		t = overlay
	}

	project := opts.project
	if project == "" {
		project = cfg.Project.Name
	}
	req := integrate.Request{
		Name:         opts.name,
		CSSFramework: cfg.Generate.CSSFramework,
		Project:      project,
		Module:       opts.module,
		SkipImport:   opts.skipImport,
		AddUsage:     opts.addUsage || cfg.Generate.AddUsage,
		UsagePrefix:  cfg.Generate.UsagePrefix,
	}

	res, err := run(integrate.NewOrchestrator(gen, t, logger), req)
	if err != nil {
		printFailure(os.Stdout, res, err)
		return err
	}
	printSummary(os.Stdout, res)
	if overlay != nil {
		printPreview(os.Stdout, overlay.Changes())
	}
	return nil
}
