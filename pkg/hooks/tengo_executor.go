package hooks

import (
	"context"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/errors"
)

// DefaultModules are the tengo standard library modules scripts may import.
var DefaultModules = []string{"fmt", "os", "text", "times", "json"}

// TengoExecutor runs hook scripts written in tengo.
type TengoExecutor struct {
	modules []string
}

// NewTengoExecutor creates an executor exposing DefaultModules, or the given
// modules when any are named.
func NewTengoExecutor(modules ...string) *TengoExecutor {
	if len(modules) == 0 {
		modules = DefaultModules
	}
	return &TengoExecutor{modules: modules}
}

// Run implements Runner. A missing script is not an error.
func (e *TengoExecutor) Run(ctx context.Context, dir string, hookType HookType, hc Context) error {
	script, ok, err := LoadScript(dir, hookType)
	if err != nil || !ok {
		return err
	}
	logger.Debug("Running hook", logger.Fields{"hook": string(hookType), "key": hc.Key})
	return e.Execute(ctx, hookType, script, hc)
}

// Execute runs script with the variables of hc. A script reports failure
// by setting the global err to an error or a non-empty string.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, script string, hc Context) error {
	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap(e.modules...))

	// err is declared so scripts can assign it without ":=".
	if err := s.Add("err", ""); err != nil {
		return fmt.Errorf("failed to add err to script: %w", err)
	}
	for k, v := range hc.variables() {
		if err := s.Add(k, v); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := s.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookExecution, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookScript, v)
		case *tengo.Error:
			return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v.String())
		case string:
			if v != "" {
				return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v)
			}
		}
	}
	return nil
}
