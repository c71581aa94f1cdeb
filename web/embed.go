// Package web holds the static pages served next to the API.
package web

import "embed"

//go:embed static/*.html
var Static embed.FS
