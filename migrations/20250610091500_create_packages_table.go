package migrations

import migrate "github.com/rubenv/sql-migrate"

func init() {
	m := &migrate.Migration{
		Id: "20250610091500_create_packages_table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS packages (
				id bigint NOT NULL GENERATED BY DEFAULT AS IDENTITY,
				name text NOT NULL,
				allow_authenticated boolean NOT NULL DEFAULT false,
				created_at timestamp with time zone NOT NULL DEFAULT now(),
				CONSTRAINT pk_packages PRIMARY KEY (id),
				CONSTRAINT unq_packages_name UNIQUE (name),
				CONSTRAINT check_packages_name_length CHECK ((char_length(name) <= 255))
			)`,
		},
		Down: []string{
			"DROP TABLE IF EXISTS packages CASCADE",
		},
	}

	allMigrations = append(allMigrations, m)
}
