package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	"github.com/sarinfocom/intellij-extra-icons/internal/icons"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
	"github.com/sarinfocom/intellij-extra-icons/internal/license"
	"github.com/sarinfocom/intellij-extra-icons/internal/plugin"
	api "github.com/sarinfocom/intellij-extra-icons/pkg/contracts/api/v1"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.License.ServerURL = ""
	cfg.License.Delay = 10 * time.Millisecond
	cfg.License.Period = time.Hour
	cfg.Plugins.Dir = t.TempDir()
	cfg.Settings.File = filepath.Join(t.TempDir(), "extra-icons.yaml")
	cfg.Settings.Watch = false
	cfg.Telemetry.Environment = "test"
	return cfg
}

func subscriptionRegistry() plugin.Registry {
	return plugin.NewManifestRegistryFS(fstest.MapFS{
		"extra-icons/plugin.yaml": {Data: []byte(
			"id: lermitage.intellij.extra.icons\nname: Extra Icons\ncomponents:\n  - extra-icons-core\n")},
	}, discardLogger())
}

func discardLogger() *slog.Logger {
	return infrastructure.NewLogger(io.Discard, "error")
}

// recordingVerifier returns a fixed verdict and remembers license requests
type recordingVerifier struct {
	verdict license.Verdict

	mu       sync.Mutex
	requests []string
}

func (v *recordingVerifier) IsLicensed(context.Context, string) license.Verdict {
	return v.verdict
}

func (v *recordingVerifier) RequestLicense(_ context.Context, _ string, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.requests = append(v.requests, message)
}

func (v *recordingVerifier) Requests() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.requests...)
}

func TestApplication_LifecycleServesHealth(t *testing.T) {
	activation := license.NewActivationState()
	verifier := &recordingVerifier{verdict: license.Licensed}

	a, err := New(testConfig(t), discardLogger(),
		WithActivation(activation),
		WithRegistry(subscriptionRegistry()),
		WithVerifier(verifier))
	require.NoError(t, err)
	require.NotNil(t, a.Server)
	assert.Empty(t, a.Addr())

	require.NoError(t, a.Start(context.Background()))
	require.NotEmpty(t, a.Addr())

	resp, err := http.Get("http://" + a.Addr() + config.HealthEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, string(license.StateChecking), health.License)

	require.Eventually(t, func() bool {
		return a.Scheduler.Status().Checks >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, activation.Activated())

	assert.Equal(t, 2, a.Notifier.Len())

	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, a.Stop(context.Background()), "stop is idempotent")
	assert.Equal(t, license.StateStopped, a.Scheduler.State())
	assert.Zero(t, a.Notifier.Len(), "stop releases every refresh subscription")
}

func TestApplication_StartFailsCleanlyWhenPortTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := testConfig(t)
	cfg.Server.Port = taken.Addr().(*net.TCPAddr).Port
	verifier := &recordingVerifier{verdict: license.Unlicensed}
	activation := license.NewActivationState()

	a, err := New(cfg, discardLogger(),
		WithActivation(activation),
		WithRegistry(subscriptionRegistry()),
		WithVerifier(verifier))
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")

	// nothing was left running
	assert.Equal(t, license.StateStopped, a.Scheduler.State())
	assert.Nil(t, a.Scheduler.Status().LastVerdict)
	assert.Empty(t, a.Addr())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, verifier.Requests())
	assert.True(t, activation.Activated())
}

func TestApplication_UnlicensedDisablesGatedIcons(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Enabled = false
	require.NoError(t, os.WriteFile(cfg.Settings.File, []byte("locale: fr\n"), 0o644))

	activation := license.NewActivationState()
	verifier := &recordingVerifier{verdict: license.Unlicensed}

	a, err := New(cfg, discardLogger(),
		WithActivation(activation),
		WithRegistry(subscriptionRegistry()),
		WithVerifier(verifier))
	require.NoError(t, err)
	assert.Nil(t, a.Server)

	require.NoError(t, a.Start(context.Background()))
	defer a.Stop(context.Background())

	require.Eventually(t, func() bool {
		return len(verifier.Requests()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, activation.Activated())
	assert.Contains(t, verifier.Requests()[0], "licence", "message follows the settings locale")
	status := a.Scheduler.Status()
	require.NotNil(t, status.LastVerdict)
	assert.Equal(t, license.Unlicensed, *status.LastVerdict)
	assert.Empty(t, a.Addr())
}

func TestApplication_FreePluginNeverChecks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Enabled = false

	registry := plugin.NewManifestRegistryFS(fstest.MapFS{
		"free/plugin.yaml": {Data: []byte(
			"id: lermitage.extra.icons.free\nname: Extra Icons Free\ncomponents:\n  - extra-icons-core\n")},
	}, discardLogger())
	verifier := &recordingVerifier{verdict: license.Unlicensed}

	a, err := New(cfg, discardLogger(),
		WithActivation(license.NewActivationState()),
		WithRegistry(registry),
		WithVerifier(verifier))
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, license.StateNotRequired, a.Scheduler.State())
	require.NoError(t, a.Stop(context.Background()))

	assert.Empty(t, verifier.Requests())
	assert.True(t, a.Activation.Activated())
}

func TestApplication_InvalidPublicKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.License.PublicKey = "not a key"

	_, err := New(cfg, discardLogger(),
		WithActivation(license.NewActivationState()),
		WithRegistry(subscriptionRegistry()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "license public key")
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	a, err := New(testConfig(t), discardLogger(),
		WithActivation(license.NewActivationState()),
		WithRegistry(subscriptionRegistry()),
		WithVerifier(&recordingVerifier{verdict: license.Licensed}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Scheduler.State() == license.StateChecking
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, license.StateStopped, a.Scheduler.State())
}

func TestSettingsLocalizer(t *testing.T) {
	store := icons.NewSettingsStore(filepath.Join(t.TempDir(), "settings.yaml"), discardLogger())
	l := settingsLocalizer{store: store}

	assert.Contains(t, l.Message(config.LicenseRequiredMsgKey), "requires a valid license")

	require.NoError(t, store.Save(icons.Settings{Locale: "fr"}))
	assert.Contains(t, l.Message(config.LicenseRequiredMsgKey), "nécessite une licence")
}
