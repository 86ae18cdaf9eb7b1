// Package migrations embeds the goose schema for the SQL row stores, one
// directory per dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
