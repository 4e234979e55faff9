package executor_test

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/enpkg/pkg/egginst"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/executor"
	mock_executor "github.com/glorpus-work/enpkg/pkg/executor/mocks"
	"github.com/glorpus-work/enpkg/pkg/fetch"
	"github.com/glorpus-work/enpkg/pkg/model"
	"github.com/glorpus-work/enpkg/pkg/repository"
	"github.com/glorpus-work/enpkg/pkg/store"
	"github.com/glorpus-work/enpkg/test/testutil"
)

type env struct {
	prefix    string
	cacheDir  string
	remote    *repository.Repository
	installed *executor.Installed
	abort     *executor.AbortFlag
	exec      *executor.Executor
}

// newEnv serves eggs from a local store and installs into a fresh prefix.
func newEnv(t *testing.T, hooks executor.Hooks, eggs ...testutil.Egg) *env {
	t.Helper()
	eggDir := t.TempDir()
	for _, egg := range eggs {
		data, err := os.ReadFile(egg.Path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(eggDir, egg.Key), data, 0o644))
	}
	local := store.NewLocal(eggDir)
	remote, err := repository.FromStore(context.Background(), local, 2)
	require.NoError(t, err)

	e := &env{
		prefix:   t.TempDir(),
		cacheDir: filepath.Join(t.TempDir(), "cache"),
		remote:   remote,
		abort:    &executor.AbortFlag{},
	}
	e.installed, err = executor.NewInstalled([]string{e.prefix}, nil, nil)
	require.NoError(t, err)

	dm := fetch.NewDownloadManager(remote, e.cacheDir, local, fetch.WithChunkSize(64))
	e.exec = executor.New(remote, e.installed, executor.NewFetcher(dm), egginst.NewInstaller(e.prefix), e.abort,
		executor.WithHooks(hooks))
	return e
}

func buildEgg(t *testing.T, key string) testutil.Egg {
	t.Helper()
	files := map[string]string{"lib/pkg/data.txt": string(make([]byte, 4096))}
	return testutil.BuildEgg(t, t.TempDir(), key, nil, files)
}

func TestAbortFlag(t *testing.T) {
	var f executor.AbortFlag
	assert.False(t, f.IsSet())
	f.Set()
	f.Set()
	assert.True(t, f.IsSet())
	f.Clear()
	assert.False(t, f.IsSet())
}

func TestExecuteInstallAndRemove(t *testing.T) {
	egg := buildEgg(t, "nose-1.3.4-1.egg")
	var progress []executor.Progress
	e := newEnv(t, executor.Hooks{OnProgress: func(p executor.Progress) { progress = append(progress, p) }}, egg)

	actions := model.ActionList{
		{Opcode: model.OpFetch, Key: egg.Key},
		{Opcode: model.OpInstall, Key: egg.Key},
	}
	sum, err := e.exec.Execute(context.Background(), actions)
	require.NoError(t, err)
	assert.Equal(t, []model.Action(actions), sum.Completed)
	assert.Empty(t, sum.Remaining)
	assert.False(t, sum.Canceled)
	assert.Nil(t, sum.Failed)

	assert.FileExists(t, filepath.Join(e.cacheDir, egg.Key))
	assert.FileExists(t, filepath.Join(e.prefix, "lib", "pkg", "data.txt"))
	assert.True(t, e.installed.Top().HasPackageKey(egg.Key))
	assert.True(t, e.installed.All().HasPackageKey(egg.Key))

	require.NotEmpty(t, progress)
	for _, p := range progress {
		assert.Equal(t, sum.TxID, p.TxID)
		assert.Equal(t, 2, p.Count)
	}
	last := progress[len(progress)-1]
	assert.Equal(t, 1, last.Index)
	assert.Equal(t, executor.StateDone, last.State)

	sum, err = e.exec.Execute(context.Background(), model.ActionList{{Opcode: model.OpRemove, Key: egg.Key}})
	require.NoError(t, err)
	assert.Len(t, sum.Completed, 1)
	assert.NoFileExists(t, filepath.Join(e.prefix, "lib", "pkg", "data.txt"))
	assert.False(t, e.installed.Top().HasPackageKey(egg.Key))
}

func TestExecuteAbortDuringFetch(t *testing.T) {
	egg := buildEgg(t, "nose-1.3.4-1.egg")
	var e *env
	e = newEnv(t, executor.Hooks{OnProgress: func(p executor.Progress) {
		if p.Action.Opcode.IsFetch() && p.Step > 0 {
			e.abort.Set()
		}
	}}, egg)

	actions := model.ActionList{
		{Opcode: model.OpFetch, Key: egg.Key},
		{Opcode: model.OpInstall, Key: egg.Key},
	}
	sum, err := e.exec.Execute(context.Background(), actions)
	require.NoError(t, err)
	assert.True(t, sum.Canceled)
	assert.Empty(t, sum.Completed)
	assert.Equal(t, []model.Action(actions), sum.Remaining)
	assert.False(t, e.abort.IsSet())

	// Neither the egg nor a partial download is left in the cache.
	entries, err := os.ReadDir(e.cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, e.installed.Top().Len())
}

func TestExecuteAbortBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_executor.NewMockFetcher(ctrl)
	installer := mock_executor.NewMockInstaller(ctrl)
	installed, err := executor.NewInstalled([]string{t.TempDir()}, nil, nil)
	require.NoError(t, err)

	abort := &executor.AbortFlag{}
	abort.Set()
	var states []executor.State
	exec := executor.New(repository.New(""), installed, fetcher, installer, abort,
		executor.WithHooks(executor.Hooks{OnProgress: func(p executor.Progress) { states = append(states, p.State) }}))

	actions := model.ActionList{
		{Opcode: model.OpFetch, Key: "a-1.0-1.egg"},
		{Opcode: model.OpInstall, Key: "a-1.0-1.egg"},
	}
	sum, err := exec.Execute(context.Background(), actions)
	require.NoError(t, err)
	assert.True(t, sum.Canceled)
	assert.Equal(t, []executor.State{executor.StateCanceled, executor.StateCanceled}, states)
	assert.False(t, abort.IsSet())
}

func TestExecuteRemoveMissingIsNoop(t *testing.T) {
	e := newEnv(t, executor.Hooks{})
	sum, err := e.exec.Execute(context.Background(), model.ActionList{{Opcode: model.OpRemove, Key: "nose-1.3.4-1.egg"}})
	require.NoError(t, err)
	assert.Len(t, sum.Completed, 1)
}

func seq(steps []int, err error) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for _, s := range steps {
			if !yield(s, nil) {
				return
			}
		}
		if err != nil {
			yield(0, err)
		}
	}
}

func TestExecuteFailureStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_executor.NewMockFetcher(ctrl)
	installer := mock_executor.NewMockInstaller(ctrl)
	transfer := mock_executor.NewMockTransfer(ctrl)
	installed, err := executor.NewInstalled([]string{t.TempDir()}, nil, nil)
	require.NoError(t, err)

	transfer.EXPECT().Skipped().Return(true)
	fetcher.EXPECT().IterFetch(gomock.Any(), "a-1.0-1.egg", false).Return(transfer, nil)
	fetcher.EXPECT().Path("a-1.0-1.egg").Return("/cache/a-1.0-1.egg")
	installer.EXPECT().IterInstall(gomock.Any(), "/cache/a-1.0-1.egg", gomock.Nil()).
		Return(seq([]int{1, 2}, errors.ErrInvalidRecord))

	exec := executor.New(repository.New(""), installed, fetcher, installer, nil)
	actions := model.ActionList{
		{Opcode: model.OpFetch, Key: "a-1.0-1.egg"},
		{Opcode: model.OpInstall, Key: "a-1.0-1.egg"},
		{Opcode: model.OpFetch, Key: "b-1.0-1.egg"},
	}
	sum, err := exec.Execute(context.Background(), actions)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrActionFailed)
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "install a-1.0-1.egg")

	assert.Equal(t, actions[:1], model.ActionList(sum.Completed))
	require.NotNil(t, sum.Failed)
	assert.Equal(t, actions[1], *sum.Failed)
	assert.Equal(t, actions[1:], model.ActionList(sum.Remaining))
}

func TestIterBreakStopsExecution(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_executor.NewMockFetcher(ctrl)
	installer := mock_executor.NewMockInstaller(ctrl)
	installed, err := executor.NewInstalled([]string{t.TempDir()}, nil, nil)
	require.NoError(t, err)

	exec := executor.New(repository.New(""), installed, fetcher, installer, nil)
	actions := model.ActionList{
		{Opcode: model.OpRemove, Key: "a-1.0-1.egg"},
		{Opcode: model.OpRemove, Key: "b-1.0-1.egg"},
	}
	n := 0
	for p, err := range exec.Iter(context.Background(), actions) {
		require.NoError(t, err)
		assert.Equal(t, executor.StateRunning, p.State)
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestNewUnitInvalidOpcode(t *testing.T) {
	exec := executor.New(repository.New(""), nil, nil, nil, nil)
	_, err := exec.NewUnit(model.Action{Opcode: "frobnicate", Key: "a-1.0-1.egg"})
	assert.ErrorIs(t, err, errors.ErrInvalidOpcode)

	_, err = exec.Execute(context.Background(), model.ActionList{{Opcode: "frobnicate", Key: "a-1.0-1.egg"}})
	assert.ErrorIs(t, err, errors.ErrInvalidOpcode)
}

func TestInstalled(t *testing.T) {
	_, err := executor.NewInstalled(nil, nil, nil)
	assert.ErrorIs(t, err, errors.ErrNoPrefixes)

	top, lower := t.TempDir(), t.TempDir()
	eggs := t.TempDir()
	a := testutil.BuildEgg(t, eggs, "a-1.0-1.egg", nil, map[string]string{"lib/a.py": ""})
	b := testutil.BuildEgg(t, eggs, "b-1.0-1.egg", nil, map[string]string{"lib/b.py": ""})

	install := func(prefix string, egg testutil.Egg) {
		for _, err := range egginst.NewInstaller(prefix).IterInstall(context.Background(), egg.Path, nil) {
			require.NoError(t, err)
		}
	}
	install(lower, b)

	in, err := executor.NewInstalled([]string{top, lower}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, top, in.TopPrefix())
	assert.Equal(t, []string{top, lower}, in.Prefixes())
	assert.Equal(t, 0, in.Top().Len())
	assert.True(t, in.All().HasPackageKey(b.Key))

	assert.ErrorIs(t, in.AddInstalled("a"), errors.ErrMissingPackage)

	install(top, a)
	require.NoError(t, in.AddInstalled("a"))
	assert.True(t, in.Top().HasPackageKey(a.Key))
	assert.True(t, in.All().HasPackageKey(a.Key))
	assert.False(t, in.Top().HasPackageKey(b.Key))
}
