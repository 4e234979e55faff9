package orchestrator

import (
	"github.com/glorpus-work/enpkg/pkg/executor"
	"github.com/glorpus-work/enpkg/pkg/hooks"
)

// DefaultSelfPackage is the name of the package manager's own package. It
// is never removed or installed by a revert.
const DefaultSelfPackage = "enstaller"

// Event represents a simple progress notification.
type Event struct {
	Phase string // planning|fetching|installing|removing|canceled|done|error
	ID    string // package key
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
	// OnProgress receives the raw executor progress, chunk by chunk.
	OnProgress func(executor.Progress)
}

// Options control how an Enpkg is assembled.
type Options struct {
	// Prefixes are the install prefixes, the first one being the target of
	// every install and removal.
	Prefixes []string
	// CacheDir holds the fetched eggs.
	CacheDir string
	// SelfPackage overrides DefaultSelfPackage.
	SelfPackage string
	// ChunkSize is the download chunk size; zero keeps the default.
	ChunkSize int
	// HookRunner runs the eggs' install and removal scripts.
	HookRunner hooks.Runner
	Hooks      Hooks
}
