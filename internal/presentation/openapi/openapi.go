// Package openapi REST API の OpenAPI 定義を埋め込む
package openapi

import _ "embed"

// Spec OpenAPI 3.0 定義（YAML）
//
//go:embed openapi.yaml
var Spec []byte
