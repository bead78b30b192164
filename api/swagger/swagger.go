package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Booking API",
        "description": "Trial-session availability search and booking across client timezones",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Availability", "description": "Client-facing slot search"},
        {"name": "Bookings", "description": "Trial session reservations"},
        {"name": "Teacher Availability", "description": "Teacher calendar management"},
        {"name": "Timezones", "description": "Supported client zones"}
    ],
    "paths": {
        "/timezones": {
            "get": {
                "tags": ["Timezones"],
                "summary": "List supported client zones",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "Search bookable trial slots around a client's local time",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "timezone", "in": "query", "required": true, "type": "string"},
                    {"name": "time", "in": "query", "required": true, "type": "string"},
                    {"name": "teacher_type", "in": "query", "type": "string", "enum": ["kids", "adult", "mixed", "expert"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid timezone or parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Data store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/slots/export": {
            "get": {
                "tags": ["Availability"],
                "summary": "Download the slot search as a PDF or CSV sheet",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "timezone", "in": "query", "required": true, "type": "string"},
                    {"name": "time", "in": "query", "required": true, "type": "string"},
                    {"name": "teacher_type", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/trial": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Reserve a trial slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReserveSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Reserved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Slot locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability": {
            "get": {
                "tags": ["Teacher Availability"],
                "summary": "List a teacher's slots in the teacher's zone",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Teacher Availability"],
                "summary": "Open local half-hour slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAvailabilityRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"},
                    "409": {"description": "Slot booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Date locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Teacher Availability"],
                "summary": "Close local half-hour slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAvailabilityRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"},
                    "409": {"description": "Slot booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Date locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BookingSubject": {
            "type": "object",
            "required": ["student_name", "contact_phone"],
            "properties": {
                "student_name": {"type": "string"},
                "guardian_name": {"type": "string"},
                "contact_phone": {"type": "string"},
                "country": {"type": "string"},
                "age": {"type": "integer"},
                "notes": {"type": "string"},
                "details": {"type": "object"}
            }
        },
        "ReserveSlotRequest": {
            "type": "object",
            "required": ["date", "time_slot", "teacher_id", "subject"],
            "properties": {
                "date": {"type": "string", "example": "2025-06-24"},
                "time_slot": {"type": "string", "example": "16:00"},
                "teacher_id": {"type": "string", "example": "any"},
                "teacher_ids": {"type": "array", "items": {"type": "string"}},
                "subject": {"$ref": "#/definitions/BookingSubject"}
            }
        },
        "UpdateAvailabilityRequest": {
            "type": "object",
            "required": ["date", "slots"],
            "properties": {
                "date": {"type": "string", "example": "2025-06-24"},
                "slots": {"type": "array", "items": {"type": "string"}, "example": ["19:00", "19:30"]}
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
