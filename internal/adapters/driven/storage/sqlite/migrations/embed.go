// Package migrations embeds the schema migrations for the session store.
package migrations

import "embed"

// FS holds the .sql migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
