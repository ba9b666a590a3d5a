package embedded

import "embed"

//go:embed "migrations"
var StoreMigrations embed.FS
