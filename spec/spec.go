// Package spec embeds the OpenAPI document describing the WorldWise pages.
// It is imported by the handler package to serve the document at /openapi.yaml.
package spec

import _ "embed"

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
