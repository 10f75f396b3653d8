package configuration

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

var configYamlV0_1 = `
version: 0.1
log:
  level: debug
  formatter: json
  fields:
    environment: test
storage:
  filesystem:
    rootdirectory: /srv/pkgvault
database:
  host: 10.0.0.1
  port: 5432
  user: pkgvault
  password: secret
  dbname: pkgvault
  sslmode: disable
  pool:
    maxidle: 5
    maxopen: 10
    maxlifetime: 5m
metadata:
  versions:
    - "1.0"
    - "1.1"
auth:
  realm: internal-index
http:
  addr: :5414
  prefix: /index/
  draintimeout: 30s
`

func TestParse(t *testing.T) {
	config, err := Parse(strings.NewReader(configYamlV0_1))
	require.NoError(t, err)

	require.Equal(t, CurrentVersion, config.Version)
	require.Equal(t, LogLevelDebug, config.Log.Level)
	require.Equal(t, "json", config.Log.Formatter)
	require.Equal(t, map[string]interface{}{"environment": "test"}, config.Log.Fields)

	require.Equal(t, "filesystem", config.Storage.Type())
	require.Equal(t, Parameters{"rootdirectory": "/srv/pkgvault"}, config.Storage.Parameters())

	require.Equal(t, "10.0.0.1", config.Database.Host)
	require.Equal(t, 5432, config.Database.Port)
	require.Equal(t, 10, config.Database.Pool.MaxOpen)
	require.Equal(t, 5*time.Minute, config.Database.Pool.MaxLifetime)

	require.Equal(t, []string{"1.0", "1.1"}, config.Metadata.Versions)
	require.Equal(t, "internal-index", config.Auth.Realm)

	require.Equal(t, ":5414", config.HTTP.Addr)
	require.Equal(t, "/index/", config.HTTP.Prefix)
	require.Equal(t, 30*time.Second, config.HTTP.DrainTimeout)
}

func TestParse_Minimal(t *testing.T) {
	config, err := Parse(strings.NewReader("version: 0.1\nstorage: inmemory\n"))
	require.NoError(t, err)

	require.Equal(t, "inmemory", config.Storage.Type())
	require.Empty(t, config.Storage.Parameters())

	// defaults
	require.Equal(t, LogLevelInfo, config.Log.Level)
}

func TestParse_NoStorage(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 0.1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no storage configuration provided")
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 99.9\nstorage: inmemory\n"))
	require.Error(t, err)
}

func TestParse_InvalidLoglevel(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 0.1\nlog:\n  level: chatty\nstorage: inmemory\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid loglevel")
}

func TestParse_MultipleStorageTypes(t *testing.T) {
	in := `
version: 0.1
storage:
  filesystem:
    rootdirectory: /srv/pkgvault
  inmemory: {}
`
	_, err := Parse(strings.NewReader(in))
	require.Error(t, err)
	require.Contains(t, err.Error(), "exactly one storage type")
}

func TestParse_EnvOverrides(t *testing.T) {
	envs := map[string]string{
		"PKGVAULT_LOG_LEVEL":     "warn",
		"PKGVAULT_DATABASE_HOST": "10.9.9.9",
		"PKGVAULT_DATABASE_PORT": "6432",
		"PKGVAULT_HTTP_ADDR":     ":8080",
	}
	for k, v := range envs {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envs {
			os.Unsetenv(k)
		}
	}()

	config, err := Parse(strings.NewReader(configYamlV0_1))
	require.NoError(t, err)

	require.Equal(t, LogLevelWarn, config.Log.Level)
	require.Equal(t, "10.9.9.9", config.Database.Host)
	require.Equal(t, 6432, config.Database.Port)
	require.Equal(t, ":8080", config.HTTP.Addr)
}

func TestParse_EnvStorageOverride(t *testing.T) {
	os.Setenv("PKGVAULT_STORAGE", "inmemory")
	defer os.Unsetenv("PKGVAULT_STORAGE")

	config, err := Parse(strings.NewReader(configYamlV0_1))
	require.NoError(t, err)
	require.Equal(t, "inmemory", config.Storage.Type())
}

func TestStorage_MarshalRoundTrip(t *testing.T) {
	storage := Storage{"filesystem": Parameters{"rootdirectory": "/srv/pkgvault"}}

	out, err := yaml.Marshal(storage)
	require.NoError(t, err)

	var back Storage
	require.NoError(t, yaml.Unmarshal(bytes.TrimSpace(out), &back))
	require.Equal(t, storage.Type(), back.Type())
	require.Equal(t, "/srv/pkgvault", back.Parameters()["rootdirectory"])
}
