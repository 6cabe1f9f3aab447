package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarinfocom/intellij-extra-icons/pkg/contracts"
)

// writeFixture lays out a plugins directory and a config file pointing at it
func writeFixture(t *testing.T, pluginID string) string {
	t.Helper()

	dir := t.TempDir()
	pluginsDir := filepath.Join(dir, "plugins")
	require.NoError(t, os.MkdirAll(filepath.Join(pluginsDir, "extra-icons"), 0o755))
	manifest := "id: " + pluginID + "\nname: Extra Icons\ncomponents:\n  - extra-icons-core\n"
	require.NoError(t, os.WriteFile(filepath.Join(pluginsDir, "extra-icons", "plugin.yaml"), []byte(manifest), 0o644))

	configFile := filepath.Join(dir, "extra-icons.config.yaml")
	cfg := "plugins:\n  dir: " + pluginsDir + "\nsettings:\n  file: " + filepath.Join(dir, "settings.yaml") + "\n"
	require.NoError(t, os.WriteFile(configFile, []byte(cfg), 0o644))

	// offline: no license server, no token key
	t.Setenv("EXTRA_ICONS_LICENSE_SERVER_URL", "")
	t.Setenv("EXTRA_ICONS_TELEMETRY_ENABLE_METRICS", "false")
	t.Setenv("EXTRA_ICONS_LOGGING_LEVEL", "error")

	return configFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, contracts.GetVersionString())

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info contracts.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.APIVersion, info.APIVersion)
}

func TestResolveCmd(t *testing.T) {
	tests := []struct {
		name     string
		pluginID string
		want     resolveResult
	}{
		{
			name:     "subscription",
			pluginID: "lermitage.intellij.extra.icons",
			want: resolveResult{
				Name:            "SUBSCRIPTION",
				PluginID:        "lermitage.intellij.extra.icons",
				ProductCode:     "PEXTRAICONS",
				RequiresLicense: true,
			},
		},
		{
			name:     "free",
			pluginID: "lermitage.extra.icons.free",
			want: resolveResult{
				Name:     "FREE",
				PluginID: "lermitage.extra.icons.free",
			},
		},
		{
			name:     "unknown plugin id",
			pluginID: "com.example.other",
			want:     resolveResult{Name: "NOT_FOUND"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeFixture(t, tt.pluginID)

			out, err := execute(t, "resolve", "--config", configFile)
			require.NoError(t, err)

			var got resolveResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckCmd(t *testing.T) {
	t.Run("free edition needs no license", func(t *testing.T) {
		configFile := writeFixture(t, "lermitage.extra.icons.free")

		out, err := execute(t, "check", "--config", configFile)
		require.NoError(t, err)

		var got checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "FREE", got.PluginType)
		assert.False(t, got.RequiresLicense)
		assert.Empty(t, got.Verdict)
	})

	t.Run("paid edition without verifiers is inconclusive", func(t *testing.T) {
		configFile := writeFixture(t, "lermitage.intellij.extra.icons.lifetime")

		out, err := execute(t, "check", "--config", configFile)
		require.NoError(t, err)

		var got checkResult
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "LIFETIME", got.PluginType)
		assert.Equal(t, "PEXTRAICONSL", got.ProductCode)
		assert.True(t, got.RequiresLicense)
		assert.Equal(t, "unknown", got.Verdict)
	})
}

func TestServeCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "serve", "extra")
	assert.Error(t, err)
}
