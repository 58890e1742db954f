// Package templates embeds default configuration files.
package templates

import "embed"

//go:embed config.yaml estimates.yaml
var FS embed.FS
