// Package openapi embeds the OpenAPI document for the HTTP API.
package openapi

import _ "embed"

// APISpec contains the OpenAPI document served at /api/v1/openapi.yaml.
//
//go:embed eicr-api.yaml
var APISpec []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), APISpec...)
}
