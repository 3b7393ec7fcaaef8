// Package migrations embeds the versioned SQL schema for chatrise.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
