// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/api/v1/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/habits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["habits"],
                "summary": "List habits",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Habit"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["habits"],
                "summary": "Create a habit",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/habitRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Habit"}}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/habits/{id}/checkins": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["checkins"],
                "summary": "List check-ins of a habit",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "start_date", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "end_date", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Checkin"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["checkins"],
                "summary": "Submit a check-in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/checkinRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.CheckinResult"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/v1/checkins/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["checkins"],
                "summary": "Submit a batch of check-ins",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/batchRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.BatchResult"}}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/stats/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Completion summary",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "start_date", "in": "query"},
                    {"type": "string", "name": "end_date", "in": "query"},
                    {"type": "string", "name": "habit_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/stats/heatmap": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Daily heatmap",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "start_date", "in": "query"},
                    {"type": "string", "name": "end_date", "in": "query"},
                    {"type": "string", "name": "habit_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "credentials": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "habitRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "target_type": {"type": "string", "enum": ["daily", "weekdays", "custom"]},
                "target_days": {"type": "array", "items": {"type": "string", "enum": ["mon", "tue", "wed", "thu", "fri", "sat", "sun"]}},
                "start_date": {"type": "string"},
                "category_id": {"type": "string"}
            }
        },
        "checkinRequest": {
            "type": "object",
            "properties": {"date": {"type": "string"}, "status": {"type": "string", "enum": ["completed", "missed"]}}
        },
        "batchRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "updates": {
                    "type": "array",
                    "items": {"type": "object", "properties": {"habit_id": {"type": "string"}, "status": {"type": "string"}}}
                }
            }
        },
        "domain.Habit": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "category_id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "target_type": {"type": "string"},
                "target_days": {"type": "array", "items": {"type": "string"}},
                "start_date": {"type": "string"},
                "current_streak": {"type": "integer"},
                "longest_streak": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Checkin": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "habit_id": {"type": "string"},
                "date": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "services.CheckinResult": {
            "type": "object",
            "properties": {
                "checkin": {"$ref": "#/definitions/domain.Checkin"},
                "current_streak": {"type": "integer"},
                "longest_streak": {"type": "integer"}
            }
        },
        "services.BatchResult": {
            "type": "object",
            "properties": {
                "updated_habit_ids": {"type": "array", "items": {"type": "string"}},
                "streaks": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Kanso Habits API",
	Description:      "Habit tracking with schedule-aware streaks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
