package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "I'Tikaf Management System API",
        "description": "Backend for mosque activity, participation and resource management.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Registration, login and token lifecycle"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Activities", "description": "Mosque activity scheduling"},
        {"name": "Participants", "description": "Participation ledger and attendance"},
        {"name": "Exports", "description": "Async roster exports"},
        {"name": "Resources", "description": "Activity resources"},
        {"name": "Feedback", "description": "Post-attendance feedback"},
        {"name": "Analytics", "description": "Aggregate reporting"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Database unreachable"}}
            }
        },
        "/auth/register/": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register an account",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/auth/login/": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with phone number and password",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/auth/refresh/": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity/activities/": {
            "get": {
                "tags": ["Activities"],
                "summary": "List activities",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity/activities/create/": {
            "post": {
                "tags": ["Activities"],
                "summary": "Create an activity",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity/activities/schedule/": {
            "get": {
                "tags": ["Activities"],
                "summary": "Upcoming activity schedule",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity-participants/create/": {
            "post": {
                "tags": ["Participants"],
                "summary": "Register a participant for an activity",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Capacity reached, duplicate or closed registration"}
                }
            }
        },
        "/activity-participants/bulk-update-status/": {
            "post": {
                "tags": ["Participants"],
                "summary": "Apply a batch of status changes atomically",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "All changes applied", "schema": {"$ref": "#/definitions/Envelope"}},
                    "207": {"description": "Batch rejected with per-item errors", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/activity-participants/stats/{activity_id}/": {
            "get": {
                "tags": ["Participants"],
                "summary": "Participation statistics for an activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "activity_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity-participants/export-jobs/": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a roster export job",
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/activity-participants/export-jobs/download/": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completed export via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token"}}
            }
        },
        "/feedback/create/": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Submit feedback for an attended activity",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Attendance required before feedback"}
                }
            }
        },
        "/analytic/overview/": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Aggregate analytics across all entities",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        }
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "errors": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
