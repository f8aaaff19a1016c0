// Package apidocs holds the swagger document served when the binary is built
// with -tags=swagger. Keep it in sync with the routes in httpapi/server.go.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tab-host-have-devices": {
            "get": {
                "produces": ["application/json"],
                "summary": "List GPUs and host resources",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DeviceList"}}}
            }
        },
        "/tab-host-models-get": {
            "get": {
                "produces": ["application/json"],
                "summary": "Catalog merged with the current assignment",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/tab-host-models-assign": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Replace the model assignment",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Persistence error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tab-host-modify-loras": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add or remove a LoRA adapter",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ModifyLorasRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Persistence error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tab-host-history": {
            "get": {
                "produces": ["application/json"],
                "summary": "Recent committed mutations",
                "parameters": [{"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/HistoryResponse"}}}
            }
        }
    },
    "definitions": {
        "AssignRequest": {
            "type": "object",
            "properties": {
                "model_assign": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "object",
                        "properties": {
                            "gpus_shard": {"type": "integer", "example": 1},
                            "share_gpu": {"type": "boolean"},
                            "n_ctx": {"type": "integer", "example": 4096}
                        }
                    }
                },
                "openai_api_enable": {"type": "boolean"},
                "anthropic_api_enable": {"type": "boolean"},
                "groq_api_enable": {"type": "boolean"},
                "cerebras_api_enable": {"type": "boolean"},
                "gemini_api_enable": {"type": "boolean"},
                "xai_api_enable": {"type": "boolean"},
                "deepseek_api_enable": {"type": "boolean"}
            }
        },
        "ModifyLorasRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "llama-7b"},
                "mode": {"type": "string", "enum": ["add", "remove"]},
                "run_id": {"type": "string", "example": "run1"},
                "checkpoint": {"type": "string", "example": "ckpt-100"}
            }
        },
        "DeviceList": {
            "type": "object",
            "properties": {
                "gpus": {"type": "array", "items": {"type": "object"}},
                "gpus_detected": {"type": "boolean"},
                "host": {"type": "object"},
                "collected_at_unix": {"type": "integer"}
            }
        },
        "HistoryResponse": {
            "type": "object",
            "properties": {"entries": {"type": "array", "items": {"type": "object"}}}
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer", "example": 400},
                "kind": {"type": "string", "example": "MissingContextLength"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "modelhostd API",
	Description:      "Model-to-GPU assignment and LoRA adapter control surface.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
