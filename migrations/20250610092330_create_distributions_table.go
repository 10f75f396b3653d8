package migrations

import migrate "github.com/rubenv/sql-migrate"

func init() {
	m := &migrate.Migration{
		Id: "20250610092330_create_distributions_table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS distributions (
				id bigint NOT NULL GENERATED BY DEFAULT AS IDENTITY,
				release_id bigint NOT NULL,
				filetype text NOT NULL,
				pyversion text NOT NULL DEFAULT '',
				path text NOT NULL,
				md5_digest text NOT NULL,
				size bigint NOT NULL,
				comment text NOT NULL DEFAULT '',
				uploader text NOT NULL DEFAULT '',
				created_at timestamp with time zone NOT NULL DEFAULT now(),
				CONSTRAINT pk_distributions PRIMARY KEY (id),
				CONSTRAINT fk_distributions_release_id_releases FOREIGN KEY (release_id) REFERENCES releases (id) ON DELETE CASCADE,
				CONSTRAINT unq_distributions_release_id_filetype_pyversion UNIQUE (release_id, filetype, pyversion),
				CONSTRAINT check_distributions_md5_digest_length CHECK ((char_length(md5_digest) = 32))
			)`,
			"CREATE INDEX IF NOT EXISTS index_distributions_on_path ON distributions USING btree (path)",
			"CREATE INDEX IF NOT EXISTS index_distributions_on_release_id ON distributions USING btree (release_id)",
		},
		Down: []string{
			"DROP INDEX IF EXISTS index_distributions_on_release_id CASCADE",
			"DROP INDEX IF EXISTS index_distributions_on_path CASCADE",
			"DROP TABLE IF EXISTS distributions CASCADE",
		},
	}

	allMigrations = append(allMigrations, m)
}
