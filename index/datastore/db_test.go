package datastore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/configuration"
	"github.com/pkgvault/pkgvault/index/datastore"
)

func TestDSN_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		arg  datastore.DSN
		out  string
	}{
		{name: "empty", arg: datastore.DSN{}, out: ""},
		{
			name: "full",
			arg: datastore.DSN{
				Host:        "127.0.0.1",
				Port:        5432,
				User:        "pkgvault",
				Password:    "secret",
				DBName:      "pkgvault_production",
				SSLMode:     "require",
				SSLCert:     "/path/to/client.crt",
				SSLKey:      "/path/to/client.key",
				SSLRootCert: "/path/to/root.crt",
			},
			out: "host=127.0.0.1 port=5432 user=pkgvault password=secret dbname=pkgvault_production sslmode=require sslcert=/path/to/client.crt sslkey=/path/to/client.key sslrootcert=/path/to/root.crt",
		},
		{
			name: "with zero port",
			arg: datastore.DSN{
				Port: 0,
			},
			out: "",
		},
		{
			name: "with spaces",
			arg: datastore.DSN{
				Password: "jw8s 0F4",
			},
			out: `password=jw8s\ 0F4`,
		},
		{
			name: "with quotes",
			arg: datastore.DSN{
				Password: "jw8s'0F4",
			},
			out: `password=jw8s\'0F4`,
		},
		{
			name: "with connect timeout",
			arg: datastore.DSN{
				Host:           "127.0.0.1",
				ConnectTimeout: 5 * time.Second,
			},
			out: "host=127.0.0.1 connect_timeout=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.out, tt.arg.String())
		})
	}
}

func TestDSN_Address(t *testing.T) {
	tests := []struct {
		name string
		arg  datastore.DSN
		out  string
	}{
		{name: "empty", arg: datastore.DSN{}, out: ":0"},
		{name: "no port", arg: datastore.DSN{Host: "127.0.0.1"}, out: "127.0.0.1:0"},
		{name: "no host", arg: datastore.DSN{Port: 5432}, out: ":5432"},
		{name: "full", arg: datastore.DSN{Host: "127.0.0.1", Port: 5432}, out: "127.0.0.1:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.out, tt.arg.Address())
		})
	}
}

func TestNewDSNFromConfig(t *testing.T) {
	config := configuration.Database{
		Host:           "10.0.0.1",
		Port:           5432,
		User:           "pkgvault",
		Password:       "secret",
		DBName:         "pkgvault",
		SSLMode:        "disable",
		ConnectTimeout: 10 * time.Second,
	}

	dsn := datastore.NewDSNFromConfig(config)
	require.Equal(t, "10.0.0.1", dsn.Host)
	require.Equal(t, 5432, dsn.Port)
	require.Equal(t, "pkgvault", dsn.User)
	require.Equal(t, "secret", dsn.Password)
	require.Equal(t, "pkgvault", dsn.DBName)
	require.Equal(t, "disable", dsn.SSLMode)
	require.Equal(t, 10*time.Second, dsn.ConnectTimeout)
}
