package hooks

import (
	"fmt"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// ErrHookLoad is returned when a hook script exists but cannot be read.
var ErrHookLoad = fmt.Errorf("failed to load hook")

func errUnsupportedHook(hookType HookType) error {
	return errors.Wrapf(errors.ErrHookExecution, "unsupported hook type: %s", hookType)
}
