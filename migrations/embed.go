// Package migrations embeds the SQL schema applied at boot by golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
