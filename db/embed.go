package db

import "embed"

// EmbedMigrations contains the embedded SQL migration files for the sample
// air-traffic schema.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
