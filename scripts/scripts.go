// Package scripts embeds the Risor extraction scripts so the binary works
// without a scripts directory on disk.
package scripts

import "embed"

//go:embed extract/*.risor
var FS embed.FS
