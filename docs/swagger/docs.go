// Package swagger registers the OpenAPI document of the management API with swag.
// It mirrors the swag annotations on feature/tracking.Handler and is served by
// gofiber/swagger at /swagger/*.
package swagger

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
        "/": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "One entry per tracked library and book. A library without books is listed once with null ISBN and Status.",
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "List Tracked Status",
                "responses": {
                    "200": {
                        "description": "Tracked status",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/tracking.Entry"}}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/tracking.Response"}
                    }
                }
            }
        },
        "/books": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Tracks a book at every registered library.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Add Book",
                "parameters": [
                    {
                        "description": "Book ISBN",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/tracking.BookRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/tracking.Response"}}
                }
            }
        },
        "/books/{isbn}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Stops tracking a book at every library.",
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Delete Book",
                "parameters": [
                    {"type": "string", "description": "Book ISBN", "name": "isbn", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/tracking.Response"}}
                }
            }
        },
        "/libraries": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Registers a library system, seeded with every tracked book.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Add Library",
                "parameters": [
                    {
                        "description": "Library system id",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/tracking.LibraryRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/tracking.Response"}}
                }
            }
        },
        "/libraries/{systemid}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Delete Library",
                "parameters": [
                    {"type": "string", "description": "Library system id", "name": "systemid", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "404": {"description": "Library Not Found", "schema": {"$ref": "#/definitions/tracking.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/tracking.Response"}}
                }
            }
        }
    },
    "definitions": {
        "tracking.BookRequest": {
            "type": "object",
            "properties": {
                "isbn": {"type": "string", "example": "9784101010014"}
            }
        },
        "tracking.Entry": {
            "type": "object",
            "properties": {
                "ISBN": {"type": "string"},
                "Library": {"type": "string"},
                "Status": {"type": "boolean"}
            }
        },
        "tracking.LibraryRequest": {
            "type": "object",
            "properties": {
                "systemid": {"type": "string", "example": "Tokyo_Setagaya"}
            }
        },
        "tracking.Response": {
            "type": "object",
            "properties": {
                "description": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Library Alert API",
	Description:      "Manage the libraries and books tracked for availability alerts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
