// Package db carries the versioned SQL schema, embedded so the binary and the
// tests migrate without a path on disk.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
