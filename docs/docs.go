// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/controls": {
            "get": {
                "produces": ["application/json"],
                "tags": ["controls"],
                "summary": "List all controls",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListControlsResponse"}}
                }
            }
        },
        "/controls/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["controls"],
                "summary": "Get control",
                "parameters": [
                    {"type": "string", "description": "Control id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ControlResponse"}},
                    "404": {"description": "Control not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/controls/{id}/actions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["controls"],
                "summary": "Perform an action",
                "parameters": [
                    {"type": "string", "description": "Control id", "name": "id", "in": "path", "required": true},
                    {"description": "Action", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ActionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.ActionResponse"}},
                    "400": {"description": "Malformed action", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/controls/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["stream"],
                "summary": "Stream control state",
                "parameters": [
                    {"type": "string", "description": "Comma separated control ids", "name": "ids", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "SSE event stream", "schema": {"type": "string"}},
                    "400": {"description": "No ids", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/controls/ws": {
            "get": {
                "tags": ["stream"],
                "summary": "Stream control state over WebSocket",
                "parameters": [
                    {"type": "string", "description": "Comma separated control ids", "name": "ids", "in": "query", "required": true}
                ],
                "responses": {
                    "101": {"description": "Switching protocols", "schema": {"type": "string"}},
                    "400": {"description": "No ids", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ActionRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "example": "boolean"},
                "value": {"type": "string", "example": "true"}
            }
        },
        "types.ActionResponse": {
            "type": "object",
            "properties": {
                "response": {"type": "string"},
                "outcome": {"type": "string"},
                "clamped": {"type": "boolean"},
                "state": {"type": "object"}
            }
        },
        "types.ControlResponse": {
            "type": "object",
            "properties": {
                "control": {"type": "object"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "controls": {"type": "integer"},
                "active_stream": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.ListControlsResponse": {
            "type": "object",
            "properties": {
                "controls": {"type": "array", "items": {"type": "object"}},
                "count": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Device Controls API",
	Description:      "REST API for listing, streaming and operating device controls",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
