// Package migrations embeds the SQL schema migrations so the binaries can
// migrate without a migrations directory next to them.
package migrations

import "embed"

// FS holds every *.sql migration of this directory
//
//go:embed *.sql
var FS embed.FS
