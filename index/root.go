package index

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgvault/pkgvault/configuration"
	dcontext "github.com/pkgvault/pkgvault/context"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/migrations"
	"github.com/pkgvault/pkgvault/version"
)

var showVersion bool

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(DBCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")

	DBCmd.AddCommand(MigrateCmd)
}

// RootCmd is the main command for the 'pkgvault' binary.
var RootCmd = &cobra.Command{
	Use:   "pkgvault",
	Short: "`pkgvault`",
	Long:  "`pkgvault` is a private package index server.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		cmd.Usage()
	},
}

// ServeCmd is the cobra command that runs the index server.
var ServeCmd = &cobra.Command{
	Use:   "serve <config>",
	Short: "`serve` stores and serves package distributions",
	Long:  "`serve` stores and serves package distributions.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := resolveConfiguration(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			cmd.Usage()
			os.Exit(1)
		}

		ctx := dcontext.Background()

		idx, err := NewIndex(ctx, config)
		if err != nil {
			dcontext.GetLogger(ctx).Fatalln(err)
		}

		if err = idx.ListenAndServe(); err != nil {
			dcontext.GetLogger(ctx).Fatalln(err)
		}
	},
}

// DBCmd is the parent command for database subcommands.
var DBCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
	Long:  "Manage the metadata database.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

// MigrateCmd applies pending schema migrations.
var MigrateCmd = &cobra.Command{
	Use:   "migrate <config>",
	Short: "Apply schema migrations",
	Long:  "Apply all pending schema migrations to the metadata database.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := resolveConfiguration(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			cmd.Usage()
			os.Exit(1)
		}

		db, err := migrationDB(config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		m := migrations.NewMigrator(db)
		if err := m.Up(); err != nil {
			fmt.Fprintf(os.Stderr, "error applying migrations: %v\n", err)
			os.Exit(1)
		}

		v, err := m.Version()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading current migration version: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("database migrated to version %s\n", v)
	},
}

func migrationDB(config *configuration.Configuration) (*sql.DB, error) {
	db, err := datastore.Open(datastore.NewDSNFromConfig(config.Database),
		datastore.WithLogLevel(config.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("error connecting to metadata database: %v", err)
	}
	return db.DB, nil
}

func resolveConfiguration(args []string) (*configuration.Configuration, error) {
	var configurationPath string

	if len(args) > 0 {
		configurationPath = args[0]
	} else if os.Getenv("PKGVAULT_CONFIGURATION_PATH") != "" {
		configurationPath = os.Getenv("PKGVAULT_CONFIGURATION_PATH")
	}

	if configurationPath == "" {
		return nil, fmt.Errorf("configuration path unspecified")
	}

	fp, err := os.Open(configurationPath)
	if err != nil {
		return nil, err
	}

	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", configurationPath, err)
	}

	return config, nil
}
