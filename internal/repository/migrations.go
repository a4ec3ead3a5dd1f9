// Package repository persists assembled reports and outage tickets in a relational database.
package repository

import (
	"embed"
	"io/fs"
)

//go:embed migrations
var embedded embed.FS

// MigrationsFS holds one directory of golang-migrate files per database type.
var MigrationsFS fs.FS

func init() {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	MigrationsFS = sub
}
