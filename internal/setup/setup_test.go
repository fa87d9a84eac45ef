package setup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestInitializeAppWithMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := writeConfig(t, dir, "version = 1\n\n[storage]\ndriver = \"memory\"\n")

	app, err := setup.InitializeApp(ctx, setup.Options{
		Component:  "test",
		LogDir:     filepath.Join(dir, "logs"),
		ConfigPath: path,
	})
	require.NoError(t, err)
	defer app.Cleanup(ctx)

	assert.Nil(t, app.DB)
	assert.Nil(t, app.RedisManager)
	assert.Equal(t, path, app.Config.Path())

	account := types.Account{ID: uuid.New(), Name: "Steve"}
	verdict := app.Engine.CheckConnection(ctx, account, "1.1.1.1")
	assert.True(t, verdict.Allowed)

	name, err := app.Store.GetAccountName(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steve", name)
}

func TestInitializeAppReloadsEngine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := writeConfig(t, dir, "version = 1\n")

	app, err := setup.InitializeApp(ctx, setup.Options{
		Component:  "test",
		LogDir:     filepath.Join(dir, "logs"),
		ConfigPath: path,
	})
	require.NoError(t, err)
	defer app.Cleanup(ctx)

	assert.Empty(t, app.Engine.Escalation().Categories())

	writeConfig(t, dir, `version = 1

[punishment_escalation.categories.chat.1]
type = "WARN"
reason = "Chat abuse"
`)
	_, err = app.Config.Reload()
	require.NoError(t, err)

	assert.Equal(t, []string{"chat"}, app.Engine.Escalation().Categories())
}

func TestInitializeAppMissingConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := setup.InitializeApp(context.Background(), setup.Options{
		Component:  "test",
		LogDir:     filepath.Join(dir, "logs"),
		ConfigPath: filepath.Join(dir, "missing.toml"),
	})
	assert.Error(t, err)
}
