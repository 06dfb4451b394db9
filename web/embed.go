package web

import "embed"

// Templates holds the layout and page templates rendered by the view
// engine.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the public assets served under /static.
//
//go:embed static/**/*
var Static embed.FS
