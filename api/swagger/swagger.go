package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MeetSync API",
        "description": "Scheduling backend: public booking pages, availability resolution and meeting management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Public", "description": "Unauthenticated booking flow"},
        {"name": "Authentication", "description": "Account registration and sessions"},
        {"name": "Users", "description": "Profile and notification settings"},
        {"name": "Calendars", "description": "Owner booking pages"},
        {"name": "Availability", "description": "Recurring and date-specific availability rules"},
        {"name": "Meetings", "description": "Booked meetings dashboard"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/public/calendars/{id}": {
            "get": {
                "tags": ["Public"],
                "summary": "Get a public calendar",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Calendar", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Private calendar"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/public/calendars/{id}/dates": {
            "get": {
                "tags": ["Public"],
                "summary": "List bookable dates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": false, "type": "string", "description": "Reference date YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "Dates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/calendars/{id}/slots": {
            "get": {
                "tags": ["Public"],
                "summary": "List open slots on a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/calendars/{id}/bookings": {
            "post": {
                "tags": ["Public"],
                "summary": "Book a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Pending meeting", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot no longer available"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "responses": {
                    "201": {"description": "Session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendars": {
            "get": {
                "tags": ["Calendars"],
                "summary": "List my calendars",
                "responses": {
                    "200": {"description": "Calendars", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Calendars"],
                "summary": "Create a calendar",
                "responses": {
                    "201": {"description": "Calendar", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/meetings": {
            "get": {
                "tags": ["Meetings"],
                "summary": "List meetings across my calendars",
                "responses": {
                    "200": {"description": "Meetings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
