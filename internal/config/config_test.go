package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklock/internal/config"
)

func TestDefaultTemplateMatchesDefault(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFromYAMLOverlaysDefaults(t *testing.T) {
	cfg, err := config.FromYAML([]byte("display:\n  time_zone: Europe/Paris\n  show_info_box: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Display.ShowInfoBox)
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
	assert.Equal(t, "allTasksJson", cfg.Storage.Key)
}

func TestValidateRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"empty group": "storage:\n  group: \"\"\n",
		"bad zone":    "display:\n  time_zone: Mars/Olympus\n",
		"bad format":  "log:\n  format: xml\n",
		"bad level":   "log:\n  level: loud\n",
		"bad yaml":    "storage: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptionalAndWriteDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, time.Local, cfg.Location())

	_, err = config.Load(dir)
	assert.Error(t, err)

	path, err := config.WriteDefault(dir, false)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = config.WriteDefault(dir, false)
	assert.Error(t, err)
	_, err = config.WriteDefault(dir, true)
	assert.NoError(t, err)

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.True(t, loaded.Display.ShowInfoBox)
}
