// Package migrations embeds the journal schema into the binary.
//
// Importing it for side effects points database.Migrations at the files.
package migrations

import (
	"embed"

	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.Migrations = files
	database.MigrationsDir = "."
}
