// Package gamedata provides the embedded skill and enemy data tables and
// utilities for loading and overriding them.
package gamedata

import "embed"

// dataFS embeds all JSON tables from this directory at build time.
//
//go:embed *.json
var dataFS embed.FS
