// Package web holds the shop's HTML templates and static assets.
package web

import "embed"

// Templates holds layouts, partials and pages.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

// Static holds CSS served under /static/.
//
//go:embed static/css/*
var Static embed.FS
