package migrations

import migrate "github.com/rubenv/sql-migrate"

func init() {
	m := &migrate.Migration{
		Id: "20250610091527_create_package_maintainer_groups_table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS package_maintainer_groups (
				package_id bigint NOT NULL,
				group_name text NOT NULL,
				CONSTRAINT pk_package_maintainer_groups PRIMARY KEY (package_id, group_name),
				CONSTRAINT fk_package_maintainer_groups_package_id_packages FOREIGN KEY (package_id) REFERENCES packages (id) ON DELETE CASCADE,
				CONSTRAINT check_package_maintainer_groups_group_name_length CHECK ((char_length(group_name) <= 255))
			)`,
		},
		Down: []string{
			"DROP TABLE IF EXISTS package_maintainer_groups CASCADE",
		},
	}

	allMigrations = append(allMigrations, m)
}
