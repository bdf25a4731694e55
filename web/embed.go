package web

import "embed"

// TemplatesFS holds the index and dashboard pages.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
