// Package migrations contiene el esquema SQL aplicado con golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
