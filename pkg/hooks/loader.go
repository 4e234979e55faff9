package hooks

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// ScriptPath returns the path of the hookType script inside dir.
func ScriptPath(dir string, hookType HookType) string {
	return filepath.Join(dir, string(hookType)+ScriptExtension)
}

// LoadScript reads the hookType script of dir. ok is false when the egg
// ships no such script.
func LoadScript(dir string, hookType HookType) (script string, ok bool, err error) {
	switch hookType {
	case PostInstall, PreRemove:
	default:
		return "", false, errUnsupportedHook(hookType)
	}

	path := ScriptPath(dir, hookType)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(ErrHookLoad, "%s: %s", path, err)
	}
	return string(data), true, nil
}
