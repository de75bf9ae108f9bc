package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighbridge-service/internal/model"
)

const devicesYAML = `
devices:
  - code: SCALE-IN
    device_type: scale
    module_code: IT6000
    port_type: TCP
    param_string: 127.0.0.1:4001
  - code: GATE
    device_type: none
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	devices := filepath.Join(dir, "devices.yaml")
	require.NoError(t, os.WriteFile(devices, []byte(devicesYAML), 0o600))

	cfg := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("catalog:\n  source: file\n  path: %s\nlogging:\n  level: error\n", devices)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "list", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "SCALE-IN")
	assert.Contains(t, out, "IT6000")
	assert.Contains(t, out, "GATE")
}

func TestListJSON(t *testing.T) {
	out, err := run(t, "list", "--json", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "SCALE-IN"`)
}

func TestExecUnknownDevice(t *testing.T) {
	_, err := run(t, "exec", "MISSING", "WEIGH", "--config", writeConfig(t))
	assert.ErrorIs(t, err, model.ErrDeviceNotFound)
}

func TestExecBadRole(t *testing.T) {
	_, err := run(t, "exec", "SCALE-IN", "WEIGH", "--role", "printer", "--config", writeConfig(t))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestPollRejectsNegativeCount(t *testing.T) {
	_, err := run(t, "poll", "SCALE-IN", "WEIGH", "--count", "-1", "--config", writeConfig(t))
	assert.ErrorContains(t, err, "--count")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	_, err := run(t, "migrate", "version", "--config", writeConfig(t))
	assert.ErrorContains(t, err, "migrations need")
}
