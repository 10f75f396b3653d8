package configuration

import (
	"fmt"
	"io"
	"io/ioutil"
	"reflect"
	"strings"
	"time"
)

// Configuration is a versioned index configuration, intended to be provided
// by a yaml file, and optionally modified by environment variables.
//
// Note that yaml field names should never include _ characters, since this is
// the separator used in environment variable names.
type Configuration struct {
	// Version is the version which defines the format of the rest of the
	// configuration
	Version Version `yaml:"version"`

	// Log supports setting various parameters related to the logging
	// subsystem.
	Log struct {
		// AccessLog configures access logging.
		AccessLog struct {
			// Disabled disables access logging.
			Disabled bool `yaml:"disabled,omitempty"`
		} `yaml:"accesslog,omitempty"`

		// Level is the granularity at which index operations are logged.
		Level Loglevel `yaml:"level,omitempty"`

		// Formatter overrides the default formatter with another. Options
		// include "text" and "json".
		Formatter string `yaml:"formatter,omitempty"`

		// Fields allows users to specify static string fields to include in
		// the logger context.
		Fields map[string]interface{} `yaml:"fields,omitempty"`
	} `yaml:"log,omitempty"`

	// Storage is the configuration for the index's artifact storage driver.
	Storage Storage `yaml:"storage"`

	// Database is the configuration for the index's metadata database.
	Database Database `yaml:"database"`

	// Metadata configures which release metadata schema versions the index
	// recognizes.
	Metadata Metadata `yaml:"metadata,omitempty"`

	// Auth configures the basic-auth fallback realm presented on restricted
	// downloads.
	Auth Auth `yaml:"auth,omitempty"`

	HTTP struct {
		// Addr specifies the bind address for the index instance.
		Addr string `yaml:"addr,omitempty"`

		// Prefix specifies a URL path prefix for the HTTP interface.
		Prefix string `yaml:"prefix,omitempty"`

		// Host specifies an externally-reachable address for the index, as a
		// fully qualified URL.
		Host string `yaml:"host,omitempty"`

		// DrainTimeout is the duration to wait for in-flight requests to
		// finish during shutdown.
		DrainTimeout time.Duration `yaml:"draintimeout,omitempty"`
	} `yaml:"http,omitempty"`
}

// Loglevel is the level at which operations are logged. This can be error,
// warn, info, or debug.
type Loglevel string

// Supported log levels.
const (
	LogLevelError Loglevel = "error"
	LogLevelWarn  Loglevel = "warn"
	LogLevelInfo  Loglevel = "info"
	LogLevelDebug Loglevel = "debug"
	LogLevelTrace Loglevel = "trace"
)

// UnmarshalYAML implements the yaml.Unmarshaler interface
// Unmarshals a string of the validated log level.
func (loglevel *Loglevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var loglevelString string
	err := unmarshal(&loglevelString)
	if err != nil {
		return err
	}

	loglevelString = strings.ToLower(loglevelString)
	switch Loglevel(loglevelString) {
	case LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug, LogLevelTrace:
	default:
		return fmt.Errorf("invalid loglevel %s Must be one of [error, warn, info, debug, trace]", loglevelString)
	}

	*loglevel = Loglevel(loglevelString)
	return nil
}

// Parameters defines a key-value parameters mapping
type Parameters map[string]interface{}

// Storage defines the configuration for index artifact storage driver
// (e.g. filesystem, inmemory)
type Storage map[string]Parameters

// Type returns the storage driver type, such as filesystem or inmemory
func (storage Storage) Type() string {
	for k := range storage {
		return k
	}
	return ""
}

// Parameters returns the Parameters map for a Storage configuration
func (storage Storage) Parameters() Parameters {
	return storage[storage.Type()]
}

// setParameter changes the parameter at the provided key to the new value
func (storage Storage) setParameter(key string, value interface{}) {
	storage[storage.Type()][key] = value
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
// Unmarshals a single item map into a Storage or a string into a Storage type
// with no parameters
func (storage *Storage) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var storageMap map[string]Parameters
	err := unmarshal(&storageMap)
	if err == nil {
		if len(storageMap) > 1 {
			types := make([]string, 0, len(storageMap))
			for k := range storageMap {
				types = append(types, k)
			}
			if len(types) > 1 {
				return fmt.Errorf("must provide exactly one storage type. Provided: %v", types)
			}
		}
		*storage = storageMap
		return nil
	}

	var storageType string
	err = unmarshal(&storageType)
	if err == nil {
		*storage = Storage{storageType: Parameters{}}
		return nil
	}

	return err
}

// MarshalYAML implements the yaml.Marshaler interface
func (storage Storage) MarshalYAML() (interface{}, error) {
	if storage.Parameters() == nil {
		return storage.Type(), nil
	}
	return map[string]Parameters(storage), nil
}

// Auth defines the configuration for the basic-auth fallback used on
// restricted downloads.
type Auth struct {
	// Realm is the name presented in the WWW-Authenticate challenge.
	Realm string `yaml:"realm,omitempty"`
}

// Database defines the configuration for the index metadata database.
type Database struct {
	Host           string        `yaml:"host,omitempty"`
	Port           int           `yaml:"port,omitempty"`
	User           string        `yaml:"user,omitempty"`
	Password       string        `yaml:"password,omitempty"`
	DBName         string        `yaml:"dbname,omitempty"`
	SSLMode        string        `yaml:"sslmode,omitempty"`
	SSLCert        string        `yaml:"sslcert,omitempty"`
	SSLKey         string        `yaml:"sslkey,omitempty"`
	SSLRootCert    string        `yaml:"sslrootcert,omitempty"`
	ConnectTimeout time.Duration `yaml:"connecttimeout,omitempty"`
	Pool           struct {
		MaxIdle     int           `yaml:"maxidle,omitempty"`
		MaxOpen     int           `yaml:"maxopen,omitempty"`
		MaxLifetime time.Duration `yaml:"maxlifetime,omitempty"`
	} `yaml:"pool,omitempty"`
}

// Metadata configures which release metadata schema versions the index
// recognizes. When empty, the built-in set is used.
type Metadata struct {
	// Versions restricts the recognized metadata_version values. An empty
	// list enables all built-in schema versions.
	Versions []string `yaml:"versions,omitempty"`
}

// CurrentVersion is the most recent Version of the configuration
var CurrentVersion = MajorMinorVersion(0, 1)

// v0_1Configuration is a Version 0.1 Configuration struct
// This is currently aliased to Configuration, as it is the current version
type v0_1Configuration Configuration

// Parse parses an input configuration yaml document into a Configuration
// struct. This should generally be capable of handling old configuration
// format versions.
//
// Environment variables may be used to override configuration parameters
// other than version, following the scheme below:
// Configuration.Abc may be replaced by the value of PKGVAULT_ABC,
// Configuration.Abc.Xyz may be replaced by the value of PKGVAULT_ABC_XYZ, and
// so forth.
func Parse(rd io.Reader) (*Configuration, error) {
	in, err := ioutil.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	p := NewParser("pkgvault", []VersionedParseInfo{
		{
			Version: MajorMinorVersion(0, 1),
			ParseAs: reflect.TypeOf(v0_1Configuration{}),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				if v0_1, ok := c.(*v0_1Configuration); ok {
					if v0_1.Log.Level == Loglevel("") {
						v0_1.Log.Level = LogLevelInfo
					}
					if v0_1.Storage.Type() == "" {
						return nil, fmt.Errorf("no storage configuration provided")
					}
					return (*Configuration)(v0_1), nil
				}
				return nil, fmt.Errorf("expected *v0_1Configuration, received %#v", c)
			},
		},
	})

	config := new(Configuration)
	err = p.Parse(in, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
