package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/config"
	"splitledger/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("SPLITLEDGER_TEST_PORT=9191\nSPLITLEDGER_TEST_KEEP=file\n"), 0600))

	t.Setenv("SPLITLEDGER_TEST_PORT", "")
	require.NoError(t, os.Unsetenv("SPLITLEDGER_TEST_PORT"))
	t.Setenv("SPLITLEDGER_TEST_KEEP", "process")

	LoadEnvFile(env)

	assert.Equal(t, "9191", os.Getenv("SPLITLEDGER_TEST_PORT"))
	assert.Equal(t, "process", os.Getenv("SPLITLEDGER_TEST_KEEP"), "existing variables win over the file")
}

func TestLoadEnvFile_MissingFileIsIgnored(t *testing.T) {
	assert.NotPanics(t, func() { LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")) })
}

func TestInitAMQP_DisabledWithoutURL(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	client, err := InitAMQP(logger, &config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
