package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
portal:
  base_url: https://portal.test
  username: buyer
  customer_number: "42"
shipping:
  heavy:
    method: LTL
  light:
    method: UPSG
    account: A1
telegram:
  allowed_chats: [10, 20]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "https://portal.test", c.Portal.BaseURL)
	assert.Equal(t, "42", c.Portal.CustomerNumber)
	assert.Equal(t, 15*time.Second, c.Portal.LoginTimeout)
	assert.Equal(t, 15, c.Portal.LineCapacity)
	assert.True(t, c.Portal.Headless)
	assert.InDelta(t, 70.0, c.Shipping.HeavyThreshold, 1e-9)
	assert.Equal(t, "LTL", c.Shipping.Heavy.Method)
	assert.Equal(t, "A1", c.Shipping.Light.Account)
	assert.Equal(t, "TPC", c.Shipping.Heavy.Incoterm)
	assert.Equal(t, "TPC", c.Shipping.Light.Incoterm)
	assert.Equal(t, []int64{10, 20}, c.Telegram.AllowedChats)
	assert.Equal(t, ":8080", c.HTTP.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_PORTAL_PASSWORD", "from-env")
	t.Setenv("APP_PORTAL_WAIT_TIMEOUT", "3s")

	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Portal.Password)
	assert.Equal(t, 3*time.Second, c.Portal.WaitTimeout)
}

func TestLoadRequiresPortal(t *testing.T) {
	_, err := Load(writeConfig(t, "app:\n  env: dev\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal.base_url")
	assert.Contains(t, err.Error(), "portal.customer_number")
}

func TestLocationFallsBackToUTC(t *testing.T) {
	var c Config
	c.App.Timezone = "Nowhere/Atlantis"
	assert.Equal(t, time.UTC, c.Location())
}

func TestPortalClientConfig(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	pc := c.PortalClient()
	assert.Equal(t, "https://portal.test", pc.BaseURL)
	assert.Equal(t, 15, pc.LineCapacity)
	assert.Equal(t, "LTL", pc.Heavy.Method)
	assert.Equal(t, "A1", pc.Light.Account)

	assert.True(t, c.Browser().Headless)
	assert.Equal(t, 10*time.Second, c.Browser().FrameTimeout)
}
