package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/config"
	"github.com/glorpus-work/enpkg/pkg/constraint"
	"github.com/glorpus-work/enpkg/pkg/errors"
	enhttp "github.com/glorpus-work/enpkg/pkg/http"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/orchestrator"
	"github.com/glorpus-work/enpkg/pkg/platform"
	"github.com/glorpus-work/enpkg/pkg/store"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err.Error()})
		return ""
	}
	return defaultPath
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	initLogger(cfg)
	return cfg, nil
}

// loadStores creates one store per enabled repository. Local directories
// are read directly; other URLs go through an authenticated HTTP client.
func loadStores(cfg *config.Config) ([]store.Store, error) {
	urls, err := cfg.RepositoryURLs()
	if err != nil {
		return nil, err
	}
	authMap, err := cfg.ToAuthMap()
	if err != nil {
		return nil, err
	}

	var opts []enhttp.Option
	if authMap != nil {
		opts = append(opts, enhttp.WithAuthenticator(authMap))
	}
	client := enhttp.NewClient(cfg.Settings.HTTPTimeout, opts...)

	stores := make([]store.Store, 0, len(urls))
	for _, u := range urls {
		if dir, ok := platform.LocalPath(u); ok {
			stores = append(stores, store.NewLocal(dir))
			continue
		}
		stores = append(stores, store.NewHTTP(u, client))
	}
	return stores, nil
}

// loadEnpkg loads the remote repository of every enabled repository and
// assembles an Enpkg on the configured prefixes.
func loadEnpkg(ctx context.Context, cfg *config.Config, out io.Writer) (*orchestrator.Enpkg, error) {
	stores, err := loadStores(cfg)
	if err != nil {
		return nil, err
	}
	concurrency := cfg.Settings.MaxConcurrent
	if concurrency < 1 {
		concurrency = storeConcurrency
	}

	multi := store.NewMulti(stores...)
	remote, err := multi.Load(ctx, concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	logger.Debug("Loaded remote repository", logger.Fields{"stores": len(stores), "packages": remote.Len()})

	return orchestrator.New(remote, multi, orchestrator.Options{
		Prefixes:    cfg.Prefixes,
		CacheDir:    cfg.RepositoryCache,
		SelfPackage: cfg.Settings.SelfPackage,
		Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
			printEvent(out, e)
		}},
	})
}

func printEvent(out io.Writer, e orchestrator.Event) {
	switch {
	case e.Phase == "planning":
		return
	case e.ID != "" && e.Msg != "":
		_, _ = fmt.Fprintf(out, "%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
	case e.ID != "":
		_, _ = fmt.Fprintf(out, "%s: %s\n", e.Phase, e.ID)
	case e.Msg != "":
		_, _ = fmt.Fprintf(out, "%s: %s\n", e.Phase, e.Msg)
	}
}

// ParseRequirements parses one requirement per argument.
func ParseRequirements(args []string) ([]constraint.Requirement, error) {
	reqs := make([]constraint.Requirement, 0, len(args))
	for _, arg := range args {
		req, err := constraint.ParseRequirement(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func printActions(out io.Writer, actions model.ActionList) {
	if len(actions) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing to do")
		return
	}
	for _, a := range actions {
		_, _ = fmt.Fprintf(out, "%-8s %s\n", a.Opcode, a.Key)
	}
}

// execute runs actions. Canceling ctx, on SIGINT for instance, aborts the
// transaction at the next chunk or action boundary instead of stopping the
// current write.
func execute(cmd *cobra.Command, e *orchestrator.Enpkg, actions model.ActionList, dryRun bool) error {
	out := cmd.OutOrStdout()
	if dryRun || len(actions) == 0 {
		printActions(out, actions)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			logger.Warn("Interrupted, aborting the transaction")
			e.AbortExecution()
		case <-done:
		}
	}()

	sum, err := e.Execute(context.WithoutCancel(ctx), actions)
	if err != nil {
		return err
	}
	if sum.Canceled {
		remaining := make([]string, len(sum.Remaining))
		for i, a := range sum.Remaining {
			remaining[i] = string(a.Opcode) + " " + a.Key
		}
		return fmt.Errorf("%w: skipped %s", errors.ErrCanceled, strings.Join(remaining, ", "))
	}
	return nil
}
