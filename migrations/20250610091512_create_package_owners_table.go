package migrations

import migrate "github.com/rubenv/sql-migrate"

func init() {
	m := &migrate.Migration{
		Id: "20250610091512_create_package_owners_table",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS package_owners (
				package_id bigint NOT NULL,
				user_name text NOT NULL,
				CONSTRAINT pk_package_owners PRIMARY KEY (package_id, user_name),
				CONSTRAINT fk_package_owners_package_id_packages FOREIGN KEY (package_id) REFERENCES packages (id) ON DELETE CASCADE,
				CONSTRAINT check_package_owners_user_name_length CHECK ((char_length(user_name) <= 255))
			)`,
		},
		Down: []string{
			"DROP TABLE IF EXISTS package_owners CASCADE",
		},
	}

	allMigrations = append(allMigrations, m)
}
