// Package migrations embeds the SQL schema files into the binary so the
// server can bootstrap its schema at startup without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
