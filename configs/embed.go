// Package configs provides the embedded configuration templates written by
// `notesearch config init`.
//
// Configuration precedence (see internal/config Load):
//  1. Defaults
//  2. User config (~/.config/notesearch/config.yaml)
//  3. Project config (.notesearch.yaml in the root)
//  4. Environment variables (NOTESEARCH_*)
package configs

import _ "embed"

// UserConfigTemplate is written to the user config path by
// `notesearch config init --user`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to <root>/.notesearch.yaml by
// `notesearch config init`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
