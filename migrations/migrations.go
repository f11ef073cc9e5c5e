package migrations

import "embed"

// Migration files bundled at compile time for single-binary deployment.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
