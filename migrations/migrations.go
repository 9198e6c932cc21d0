// Package migrations embeds the goose SQL migrations so they can be applied
// at startup and from tests without a separate migration binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
