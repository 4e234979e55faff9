//go:generate mockgen -destination=./mocks/hooks.go . Runner
package hooks

import "context"

// Runner runs the hook script of the given type found in dir, if any.
type Runner interface {
	Run(ctx context.Context, dir string, hookType HookType, hc Context) error
}
