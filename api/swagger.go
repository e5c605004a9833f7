// Package api holds the published API descriptions of the service.
package api

import _ "embed"

// SwaggerPath is where the router serves SwaggerJSON.
const SwaggerPath = "/openapi/andrew.swagger.json"

// SwaggerJSON is the OpenAPI document for the REST API.
//
//go:embed swagger/andrew.swagger.json
var SwaggerJSON []byte
