package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Marketing Calendar API",
        "description": "Campaign scheduling, holiday catalog and reminder timeline",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calendar", "description": "Composed timeline, month projections and exports"},
        {"name": "Campaigns", "description": "Campaign scheduling"},
        {"name": "Reminders", "description": "Reminder lifecycle"}
    ],
    "paths": {
        "/calendar/timeline": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Compose the calendar timeline for a viewport",
                "parameters": [
                    {"name": "anchor", "in": "query", "type": "string", "format": "date"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"], "default": "week"},
                    {"name": "nav", "in": "query", "type": "string", "enum": ["prev", "next", "today"]},
                    {"name": "X-Calendar-Session", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Timeline", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "Superseded by a newer request in the same session"},
                    "400": {"description": "Invalid viewport", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/events": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List the reminder projection for a month",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "month", "in": "query", "type": "integer", "required": true, "minimum": 1, "maximum": 12}
                ],
                "responses": {
                    "200": {"description": "Calendar events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid month", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/export.ics": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Export a viewport as iCalendar",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "anchor", "in": "query", "type": "string", "format": "date"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]}
                ],
                "responses": {"200": {"description": "ICS file"}}
            }
        },
        "/calendar/export.csv": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Export a viewport as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "anchor", "in": "query", "type": "string", "format": "date"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]}
                ],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/calendar/export.pdf": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Export a viewport as a PDF agenda",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "anchor", "in": "query", "type": "string", "format": "date"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["day", "week", "month"]}
                ],
                "responses": {"200": {"description": "PDF file"}}
            }
        },
        "/campaigns": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List campaigns",
                "responses": {
                    "200": {"description": "Campaigns", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Campaigns"],
                "summary": "Create campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CampaignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}": {
            "put": {
                "tags": ["Campaigns"],
                "summary": "Update campaign",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CampaignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Campaigns"],
                "summary": "Delete campaign",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}/form": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "Campaign edit form",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Form", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Create reminder",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReminderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/due": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Reminders currently due",
                "responses": {
                    "200": {"description": "Due reminders", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/{id}": {
            "delete": {
                "tags": ["Reminders"],
                "summary": "Delete reminder",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/{id}/dismiss": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Dismiss reminder",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Dismissed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/{id}/snooze": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Snooze reminder",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SnoozeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Snoozed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid duration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CampaignRequest": {
            "type": "object",
            "required": ["name", "platforms", "startDate"],
            "properties": {
                "name": {"type": "string"},
                "objective": {"type": "string"},
                "platforms": {"type": "array", "items": {"type": "string"}},
                "creative": {"type": "object"},
                "startDate": {"type": "string", "format": "date"},
                "postTime": {"type": "string", "example": "09:00"},
                "postHour": {"type": "integer", "minimum": 0, "maximum": 23},
                "postMinute": {"type": "integer", "minimum": 0, "maximum": 59},
                "status": {"type": "string", "enum": ["draft", "scheduled", "active", "posted", "paused"]}
            }
        },
        "ReminderRequest": {
            "type": "object",
            "required": ["title", "scheduledFor"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "scheduledFor": {"type": "string", "format": "date-time"},
                "reminderOffsetMinutes": {"type": "integer", "minimum": 0}
            }
        },
        "SnoozeRequest": {
            "type": "object",
            "properties": {
                "minutes": {"type": "integer", "minimum": 0, "maximum": 1440}
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
