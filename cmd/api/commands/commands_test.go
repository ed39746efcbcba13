package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useStore(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "database.json")
	t.Setenv("STORE_PATH", path)
	return path
}

func TestStoreInitCreatesFile(t *testing.T) {
	path := useStore(t)

	out, err := execute(t, NewStoreCommand(), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Store ready at")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "caisse_manifestation")
}

func TestStoreCheckRequiresExistingFile(t *testing.T) {
	useStore(t)

	_, err := execute(t, NewStoreCommand(), "check")
	assert.Error(t, err)

	_, err = execute(t, NewStoreCommand(), "init")
	require.NoError(t, err)

	out, err := execute(t, NewStoreCommand(), "check")
	require.NoError(t, err)
	assert.Contains(t, out, "taxes")
	assert.Contains(t, out, "4 items")
}

func TestStoreDumpFormats(t *testing.T) {
	useStore(t)

	_, err := execute(t, NewStoreCommand(), "init")
	require.NoError(t, err)

	out, err := execute(t, NewStoreCommand(), "dump", "taxes", "--format", "yaml")
	require.NoError(t, err)

	var taxes []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &taxes))
	require.Len(t, taxes, 4)

	out, err = execute(t, NewStoreCommand(), "dump", "missions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))

	_, err = execute(t, NewStoreCommand(), "dump", "no_such_area")
	assert.Error(t, err)

	_, err = execute(t, NewStoreCommand(), "dump", "--format", "xml")
	assert.Error(t, err)
}

func TestStoreReadCommandsLeaveFileUntouched(t *testing.T) {
	path := useStore(t)

	_, err := execute(t, NewStoreCommand(), "dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "dump must not create the store file")

	original := []byte(`{"taxes":[{"id":"tax_tfa","rate":"0.001","legacy":true}]}`)
	require.NoError(t, os.WriteFile(path, original, 0o644))

	out, err := execute(t, NewStoreCommand(), "check")
	require.NoError(t, err)
	assert.Contains(t, out, "1 areas")

	out, err = execute(t, NewStoreCommand(), "dump", "taxes")
	require.NoError(t, err)
	assert.Contains(t, out, "legacy")

	_, err = execute(t, NewStoreCommand(), "dump", "missions")
	assert.Error(t, err, "areas are not backfilled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestAuthHashPassword(t *testing.T) {
	out, err := execute(t, NewAuthCommand(), "hash-password", "operator-pw")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("operator-pw")))
}

func TestAuthToken(t *testing.T) {
	useStore(t)
	t.Setenv("JWT_SECRET", "command-test-secret")

	out, err := execute(t, NewAuthCommand(), "token", "--subject", "ops")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Mobilize "+Version)
}
