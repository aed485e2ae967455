package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/types"
	"github.com/zilchlang/zilch/pkg/vm"
)

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "zilch.toml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Tuning.FrameLimit)
}

func TestLoadParsesTuningTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zilch.toml")
	contents := "[tuning]\nframe_limit = 256\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Tuning.FrameLimit)
}

func TestApplyOverridesFrameLimit(t *testing.T) {
	lib := types.NewLibrary("empty")
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := vm.NewExecutableState(mod, nil)

	Tuning{FrameLimit: 10}.Apply(es)
	assert.Equal(t, 10, es.FrameLimit)
}

func TestApplyLeavesDefaultWhenUnset(t *testing.T) {
	lib := types.NewLibrary("empty")
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	es := vm.NewExecutableState(mod, nil)
	before := es.FrameLimit

	Tuning{}.Apply(es)
	assert.Equal(t, before, es.FrameLimit)
}
