package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Attendance API",
        "description": "Roster marking sessions and student attendance calendars",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Marking", "description": "Daily roster marking workflow"},
        {"name": "Calendar", "description": "Student month calendar"},
        {"name": "Health", "description": "Probes"}
    ],
    "paths": {
        "/marking/sessions": {
            "post": {
                "tags": ["Marking"],
                "summary": "Open a marking session for a class roster",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}": {
            "get": {
                "tags": ["Marking"],
                "summary": "Get a marking session",
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}/toggle": {
            "post": {
                "tags": ["Marking"],
                "summary": "Flag or clear one student",
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ToggleAbsenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session is confirming", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}/mark-all": {
            "post": {
                "tags": ["Marking"],
                "summary": "Mark every student absent or present",
                "parameters": [
                    {"$ref": "#/parameters/SessionID"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/MarkAllRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session is confirming", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}/confirm": {
            "post": {
                "tags": ["Marking"],
                "summary": "Review the selection before submitting",
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Roster locked, empty or already confirming", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}/cancel": {
            "post": {
                "tags": ["Marking"],
                "summary": "Leave review and keep editing",
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marking/sessions/{id}/submit": {
            "post": {
                "tags": ["Marking"],
                "summary": "Submit the confirmed roster",
                "parameters": [{"$ref": "#/parameters/SessionID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not confirming, or the day was already marked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{enrollmentId}/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Reconciled attendance calendar for a month",
                "parameters": [
                    {"$ref": "#/parameters/EnrollmentID"},
                    {"$ref": "#/parameters/Month"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Enrollment not readable by caller", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{enrollmentId}/calendar/export": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Download the month calendar",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/EnrollmentID"},
                    {"$ref": "#/parameters/Month"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "parameters": {
        "SessionID": {"in": "path", "name": "id", "required": true, "type": "string"},
        "EnrollmentID": {"in": "path", "name": "enrollmentId", "required": true, "type": "string"},
        "Month": {"in": "query", "name": "month", "type": "string", "description": "YYYY-MM, defaults to the current month"}
    },
    "definitions": {
        "OpenSessionRequest": {
            "type": "object",
            "required": ["class_id", "date"],
            "properties": {
                "class_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-01-08"}
            }
        },
        "ToggleAbsenceRequest": {
            "type": "object",
            "required": ["enrollment_id"],
            "properties": {
                "enrollment_id": {"type": "string"},
                "absent": {"type": "boolean", "description": "omit to flip the current state"}
            }
        },
        "MarkAllRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["ABSENT", "PRESENT"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
