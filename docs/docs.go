// Package docs holds the generated OpenAPI document. Regenerate with
// `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/v1/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/auth/reset": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["auth"],
                "summary": "Request a password reset",
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/auth/reset/confirm": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["auth"],
                "summary": "Confirm a password reset",
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/v1/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/aliases": {
            "get": {
                "produces": ["application/json"],
                "tags": ["aliases"],
                "summary": "List aliases",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["aliases"],
                "summary": "Create an alias",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/aliases/{id}": {
            "delete": {
                "tags": ["aliases"],
                "summary": "Delete an alias",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/inbox": {
            "get": {
                "produces": ["application/json"],
                "tags": ["inbox"],
                "summary": "List inbox messages",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/inbox/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["inbox"],
                "summary": "Get a message",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["inbox"],
                "summary": "Delete a message",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/admin/users/{id}/limit": {
            "patch": {
                "consumes": ["application/json"],
                "tags": ["admin"],
                "summary": "Set a user's alias limit",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/admin/users/{id}/disabled": {
            "patch": {
                "consumes": ["application/json"],
                "tags": ["admin"],
                "summary": "Disable or enable a user",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/ingest": {
            "post": {
                "consumes": ["application/octet-stream"],
                "tags": ["ingest"],
                "summary": "Deliver an inbound message",
                "parameters": [
                    {"type": "string", "name": "X-Mael-Recipient", "in": "header", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "413": {"description": "Request Entity Too Large"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Mael API",
	Description:      "Multi-tenant email-alias portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
