// Package appfs embeds the migration and template assets into the binary.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
