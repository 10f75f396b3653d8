package migrations

import migrate "github.com/rubenv/sql-migrate"

func init() {
	m := &migrate.Migration{
		Id: "20250610092201_create_releases_table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS releases (
				id bigint NOT NULL GENERATED BY DEFAULT AS IDENTITY,
				package_id bigint NOT NULL,
				version text NOT NULL,
				metadata_version text NOT NULL,
				hidden boolean NOT NULL DEFAULT false,
				info jsonb NOT NULL DEFAULT '{}',
				created_at timestamp with time zone NOT NULL DEFAULT now(),
				CONSTRAINT pk_releases PRIMARY KEY (id),
				CONSTRAINT fk_releases_package_id_packages FOREIGN KEY (package_id) REFERENCES packages (id) ON DELETE CASCADE,
				CONSTRAINT unq_releases_package_id_version UNIQUE (package_id, version),
				CONSTRAINT check_releases_version_length CHECK ((char_length(version) <= 128))
			)`,
			"CREATE INDEX IF NOT EXISTS index_releases_on_package_id ON releases USING btree (package_id)",
		},
		Down: []string{
			"DROP INDEX IF EXISTS index_releases_on_package_id CASCADE",
			"DROP TABLE IF EXISTS releases CASCADE",
		},
	}

	allMigrations = append(allMigrations, m)
}
