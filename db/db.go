// Package db embeds the goose migrations so binaries do not depend on a checkout.
package db

import "embed"

// Migrations holds the SQL migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the path of the migrations inside Migrations.
const MigrationsDir = "migrations"
