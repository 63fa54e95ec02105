package dto

import "time"

type ExtractInput struct {
	Name  string
	RunID string
}

type ExtractOutput struct {
	Entry    string
	Path     string
	Identity string
	Bytes    int64
}

type ManifestEntryOutput struct {
	Entry       string
	Path        string
	Identity    string
	Bytes       int64
	ExtractedAt time.Time
	RunID       string
}
