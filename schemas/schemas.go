// Package schemas embeds the OpenAPI document served and enforced by the API.
package schemas

import _ "embed"

// OpenAPISpec is the raw bytes of openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
