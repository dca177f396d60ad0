// Package docs registers the Swagger document served at /swagger/*any.
// Regenerate with `swag init -g cmd/server/main.go` after changing annotations.
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
        "/emergency/request": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Emergency"],
                "summary": "Create Emergency Request",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.CreateEmergencyRequestInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controllers.ErrorResponse"}}
                }
            }
        },
        "/emergency": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Emergency"],
                "summary": "List Emergency Requests",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "bloodType", "in": "query"},
                    {"type": "string", "name": "startDate", "in": "query"},
                    {"type": "string", "name": "endDate", "in": "query"},
                    {"type": "integer", "name": "provinceId", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "sortBy", "in": "query"},
                    {"type": "string", "name": "sortOrder", "in": "query"},
                    {"type": "string", "name": "searchBy", "in": "query"},
                    {"type": "string", "name": "query", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}}
                }
            }
        },
        "/emergency/{emergencyRequestId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Emergency"],
                "summary": "Get Emergency Request",
                "parameters": [{"type": "integer", "name": "emergencyRequestId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controllers.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Emergency"],
                "summary": "Update Emergency Request",
                "parameters": [
                    {"type": "integer", "name": "emergencyRequestId", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.UpdateEmergencyRequestInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/controllers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Emergency"],
                "summary": "Delete Emergency Request",
                "parameters": [{"type": "integer", "name": "emergencyRequestId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/controllers.ErrorResponse"}}
                }
            }
        },
        "/emergency/{emergencyRequestId}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Emergency"],
                "summary": "Update Emergency Request Status",
                "parameters": [
                    {"type": "integer", "name": "emergencyRequestId", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/services.UpdateStatusInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controllers.ErrorResponse"}}
                }
            }
        },
        "/ping": {
            "get": {
                "tags": ["Health"],
                "summary": "Ping",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.SuccessResponse"}}}
            }
        }
    },
    "definitions": {
        "controllers.SuccessResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 100000},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "controllers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 101000},
                "error": {"type": "string"}
            }
        },
        "services.CreateEmergencyRequestInput": {
            "type": "object",
            "required": ["bloodType"],
            "properties": {
                "bloodType": {"type": "string", "example": "A+"},
                "additionalInfo": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "services.UpdateEmergencyRequestInput": {
            "type": "object",
            "properties": {
                "bloodType": {"type": "string"},
                "additionalInfo": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "services.UpdateStatusInput": {
            "type": "object",
            "required": ["newStatus"],
            "properties": {
                "newStatus": {"type": "string", "enum": ["pending", "inProgress", "fulfilled", "expired", "cancelled"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Enter the token with the ` + "`" + `Bearer ` + "`" + ` prefix",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "BloodLink API",
	Description:      "Emergency blood request coordination: requests, donor notification, inventory, help offers and donation appointments",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
