package egginst_test

import (
	"context"
	"encoding/json"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/enpkg/pkg/egginst"
	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/hooks"
	mock_hooks "github.com/glorpus-work/enpkg/pkg/hooks/mocks"
	"github.com/glorpus-work/enpkg/pkg/repository"
	"github.com/glorpus-work/enpkg/test/testutil"
)

func drain(seq iter.Seq2[int, error]) (int, error) {
	last := 0
	for step, err := range seq {
		if err != nil {
			return step, err
		}
		last = step
	}
	return last, nil
}

var noseFiles = map[string]string{
	"lib/nose/__init__.py": "# nose",
	"lib/nose/core.py":     "def main(): pass",
	"bin/nosetests":        "#!/bin/sh",
	"EGG-INFO/spec/depend": "metadata_version = '1.1'",
}

func TestIterInstall(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)

	inst := egginst.NewInstaller(prefix)
	steps, err := drain(inst.IterInstall(context.Background(), egg.Path, map[string]any{"product": "commercial"}))
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	for _, p := range []string{"lib/nose/__init__.py", "lib/nose/core.py", "bin/nosetests"} {
		assert.FileExists(t, filepath.Join(prefix, filepath.FromSlash(p)))
	}
	metaDir := inst.MetaDir("nose")
	assert.Equal(t, filepath.Join(prefix, "EGG-INFO", "nose"), metaDir)
	assert.FileExists(t, filepath.Join(metaDir, "spec", "depend"))

	pkg, err := repository.ReadInstalledMetadata(metaDir, inst.EggInfoRoot())
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "nose-1.3.4-1.egg", pkg.Key())
	assert.Equal(t, "1.3.4-1", pkg.FullVersion())
	assert.Equal(t, "commercial", pkg.Product())

	data, err := os.ReadFile(filepath.Join(metaDir, egginst.FilesList))
	require.NoError(t, err)
	var files []string
	require.NoError(t, json.Unmarshal(data, &files))
	assert.ElementsMatch(t, []string{"lib/nose/__init__.py", "lib/nose/core.py", "bin/nosetests"}, files)

	installed, err := repository.FromPrefixes([]string{prefix}, nil, nil)
	require.NoError(t, err)
	assert.True(t, installed.HasPackageKey("nose-1.3.4-1.egg"))
}

func TestIterInstallRunsPostInstallHook(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	files := map[string]string{
		"lib/nose/__init__.py": "",
		"EGG-INFO/post_install.tengo": `
			os := import("os")
			f := os.create(prefix + "/hook-ran")
			f.write_string(name + " " + version)
			f.close()
		`,
	}
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, files)

	_, err := drain(egginst.NewInstaller(prefix).IterInstall(context.Background(), egg.Path, nil))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(prefix, "hook-ran"))
	require.NoError(t, err)
	assert.Equal(t, "nose 1.3.4-1", string(data))
}

func TestIterInstallHookFailureRollsBack(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)

	ctrl := gomock.NewController(t)
	runner := mock_hooks.NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), gomock.Any(), hooks.PostInstall, gomock.Any()).
		DoAndReturn(func(_ context.Context, dir string, _ hooks.HookType, hc hooks.Context) error {
			assert.Equal(t, "nose", hc.Name)
			assert.Equal(t, prefix, hc.Prefix)
			assert.Equal(t, dir, hc.MetaDir)
			return errors.ErrHookScript
		})

	inst := egginst.NewInstaller(prefix, egginst.WithHookRunner(runner))
	_, err := drain(inst.IterInstall(context.Background(), egg.Path, nil))
	assert.ErrorIs(t, err, errors.ErrHookScript)

	assert.NoFileExists(t, filepath.Join(prefix, "lib", "nose", "core.py"))
	assert.NoDirExists(t, filepath.Join(prefix, "lib"))
	assert.NoDirExists(t, inst.MetaDir("nose"))
}

func TestIterInstallStopRollsBack(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)

	inst := egginst.NewInstaller(prefix)
	for range inst.IterInstall(context.Background(), egg.Path, nil) {
		break
	}

	installed, err := repository.FromPrefixes([]string{prefix}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, installed.Len())
	assert.NoDirExists(t, filepath.Join(prefix, "lib"))
}

func TestIterInstallInvalidEgg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken-1.0-1.egg")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := drain(egginst.NewInstaller(t.TempDir()).IterInstall(context.Background(), path, nil))
	assert.ErrorIs(t, err, errors.ErrInvalidRecord)
}

func TestIterInstallReplacesInstalledVersion(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	old := testutil.BuildEgg(t, eggs, "nose-1.3.3-1.egg", nil, map[string]string{"lib/nose/old.py": ""})
	newer := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, map[string]string{"lib/nose/new.py": ""})

	inst := egginst.NewInstaller(prefix)
	_, err := drain(inst.IterInstall(context.Background(), old.Path, nil))
	require.NoError(t, err)
	_, err = drain(inst.IterInstall(context.Background(), newer.Path, nil))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(prefix, "lib", "nose", "old.py"))
	assert.FileExists(t, filepath.Join(prefix, "lib", "nose", "new.py"))

	pkg, err := repository.ReadInstalledMetadata(inst.MetaDir("nose"), inst.EggInfoRoot())
	require.NoError(t, err)
	assert.Equal(t, "nose-1.3.4-1.egg", pkg.Key())
}

func TestIterInstallOverStaleMetaDir(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)

	inst := egginst.NewInstaller(prefix)
	// left behind by an install killed before info.json was written
	stale := filepath.Join(inst.MetaDir("nose"), "spec")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "leftover"), []byte("x"), 0o644))

	_, err := drain(inst.IterInstall(context.Background(), egg.Path, nil))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(stale, "leftover"))
	assert.FileExists(t, filepath.Join(stale, "depend"))
	installed, err := repository.FromPrefixes([]string{prefix}, nil, nil)
	require.NoError(t, err)
	assert.True(t, installed.HasPackageKey("nose-1.3.4-1.egg"))
}

func TestIterRemove(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "lib"), 0o755))
	keep := filepath.Join(prefix, "lib", "other.py")
	require.NoError(t, os.WriteFile(keep, nil, 0o644))

	inst := egginst.NewInstaller(prefix)
	_, err := drain(inst.IterInstall(context.Background(), egg.Path, nil))
	require.NoError(t, err)

	steps, err := drain(inst.IterRemove(context.Background(), "nose-1.3.4-1.egg"))
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	assert.NoDirExists(t, filepath.Join(prefix, "lib", "nose"))
	assert.NoDirExists(t, filepath.Join(prefix, "bin"))
	assert.NoDirExists(t, inst.MetaDir("nose"))
	assert.FileExists(t, keep)
	assert.DirExists(t, prefix)
}

func TestIterRemoveRunsPreRemoveHook(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, map[string]string{
		"lib/nose/__init__.py":      "",
		"EGG-INFO/pre_remove.tengo": `err = "nose is pinned"`,
	})

	inst := egginst.NewInstaller(prefix)
	_, err := drain(inst.IterInstall(context.Background(), egg.Path, nil))
	require.NoError(t, err)

	_, err = drain(inst.IterRemove(context.Background(), egg.Key))
	assert.ErrorIs(t, err, errors.ErrHookScript)
	assert.FileExists(t, filepath.Join(prefix, "lib", "nose", "__init__.py"))
}

func TestIterRemoveMissing(t *testing.T) {
	steps, err := drain(egginst.NewInstaller(t.TempDir()).IterRemove(context.Background(), "nose-1.3.4-1.egg"))
	assert.Equal(t, 0, steps)
	assert.ErrorIs(t, err, errors.ErrMissingPackage)
}

func TestIterRemoveToleratesMissingFiles(t *testing.T) {
	eggs := t.TempDir()
	prefix := t.TempDir()
	egg := testutil.BuildEgg(t, eggs, "nose-1.3.4-1.egg", nil, noseFiles)

	inst := egginst.NewInstaller(prefix)
	_, err := drain(inst.IterInstall(context.Background(), egg.Path, nil))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(prefix, "bin", "nosetests")))

	_, err = drain(inst.IterRemove(context.Background(), egg.Key))
	require.NoError(t, err)
	assert.NoDirExists(t, inst.MetaDir("nose"))
}
