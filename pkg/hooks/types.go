package hooks

// HookType names a script an egg may ship in its EGG-INFO directory.
type HookType string

// Supported hook types.
const (
	PostInstall HookType = "post_install"
	PreRemove   HookType = "pre_remove"
)

// ScriptExtension is the file extension of hook scripts.
const ScriptExtension = ".tengo"

// Context is the information a hook script sees as global variables.
type Context struct {
	Key     string
	Name    string
	Version string
	Prefix  string
	MetaDir string
	Vars    map[string]interface{}
}

// variables returns the script globals for c.
func (c Context) variables() map[string]interface{} {
	vars := map[string]interface{}{
		"key":     c.Key,
		"name":    c.Name,
		"version": c.Version,
		"prefix":  c.Prefix,
		"metaDir": c.MetaDir,
	}
	for k, v := range c.Vars {
		vars[k] = v
	}
	return vars
}
