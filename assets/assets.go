// Package assets bundles the documents shipped with the application.
package assets

import "embed"

//go:embed *.pdf
var FS embed.FS

// Catalog is the compiled-in, ordered list of bundled documents.
var Catalog = []string{
	"Annotations.pdf",
	"Aviation.pdf",
	"Calculator.pdf",
	"Classbook.pdf",
	"Construction.pdf",
	"Student.pdf",
	"Teacher.pdf",
	"The-Cosmic-Context-for-Life.pdf",
}
