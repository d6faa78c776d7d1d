// Package migrations embeds the Postgres schema migrations so the migrate
// command works without the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
