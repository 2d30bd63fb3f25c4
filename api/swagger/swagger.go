package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SchedulEase API",
        "description": "Generates conflict-free course schedules from a section catalog and exports them as calendars.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Section catalog lookups"},
        {"name": "Schedules", "description": "Schedule generation and export"},
        {"name": "Health", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog courses",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "subject", "in": "query", "type": "string", "description": "Subject code, e.g. CS"},
                    {"name": "q", "in": "query", "type": "string", "description": "Free-text search on code or title"}
                ],
                "responses": {
                    "200": {"description": "Courses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/sections": {
            "get": {
                "tags": ["Courses"],
                "summary": "Normalised sections of one course",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Course identifier, e.g. CS100"}
                ],
                "responses": {
                    "200": {"description": "Sections", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate conflict-free schedules",
                "description": "Enumerates section combinations that satisfy the preferences. An infeasible request is a 200 with status NO_FEASIBLE_SCHEDULE.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Generated schedules", "schema": {"$ref": "#/definitions/GenerateScheduleResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not in catalog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/export": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Export a schedule",
                "consumes": ["application/json"],
                "produces": ["text/calendar", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["ics", "csv", "pdf"], "default": "ics"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rendered file", "schema": {"type": "file"}, "headers": {"X-Skipped-Blocks": {"type": "integer"}}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe with process counters",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Exposition format"}
                }
            }
        }
    },
    "definitions": {
        "CourseSelection": {
            "description": "Either \"CS 100\" or {\"subject\": \"CS\", \"code\": \"100\"}",
            "type": "string"
        },
        "Preferences": {
            "type": "object",
            "properties": {
                "excludeDays": {"type": "array", "items": {"type": "string"}},
                "startNotBefore": {"type": "string", "example": "09:00"},
                "endNotAfter": {"type": "string", "example": "17:00"},
                "noFriday": {"type": "boolean"},
                "startAfter": {"type": "string"},
                "endBefore": {"type": "string"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["courses"],
            "properties": {
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseSelection"}},
                "prefs": {"$ref": "#/definitions/Preferences"},
                "limit": {"type": "integer", "minimum": 1, "maximum": 500}
            }
        },
        "ScheduleBlock": {
            "type": "object",
            "properties": {
                "day": {"type": "string", "example": "Mon"},
                "start": {"type": "string", "example": "9:00 AM"},
                "end": {"type": "string", "example": "9:50 AM"},
                "title": {"type": "string"},
                "crn": {"type": "string"},
                "courseId": {"type": "string"},
                "kind": {"type": "string", "enum": ["lecture", "lab", "discussion"]},
                "location": {"type": "string"},
                "instructor": {"type": "string"}
            }
        },
        "ScheduleStats": {
            "type": "object",
            "properties": {
                "earliest": {"type": "string"},
                "latest": {"type": "string"},
                "totalGapMinutes": {"type": "integer"},
                "distinctDays": {"type": "integer"}
            }
        },
        "ScheduleResult": {
            "type": "object",
            "properties": {
                "crns": {"type": "array", "items": {"type": "string"}},
                "blocks": {"type": "array", "items": {"$ref": "#/definitions/ScheduleBlock"}},
                "stats": {"$ref": "#/definitions/ScheduleStats"}
            }
        },
        "GenerateScheduleResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["OK", "NO_FEASIBLE_SCHEDULE"]},
                "reason": {"type": "string", "enum": ["EMPTY_CANDIDATES", "ALL_COMBINATIONS_CONFLICT"]},
                "courses": {"type": "array", "items": {"type": "string"}},
                "schedules": {"type": "array", "items": {"$ref": "#/definitions/ScheduleResult"}},
                "count": {"type": "integer"},
                "limit": {"type": "integer"},
                "totalCombinations": {"type": "integer"},
                "capped": {"type": "boolean"},
                "emptyCourses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ExportScheduleRequest": {
            "type": "object",
            "required": ["blocks"],
            "properties": {
                "name": {"type": "string"},
                "blocks": {"type": "array", "items": {"$ref": "#/definitions/ScheduleBlock"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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
