package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Planner API",
        "description": "Recurring class schedule, course notes and personal activities",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Schedule"
        },
        {
            "name": "Courses"
        },
        {
            "name": "Queries"
        },
        {
            "name": "Navigation"
        },
        {
            "name": "Backup"
        },
        {
            "name": "Export"
        },
        {
            "name": "Activities"
        }
    ],
    "paths": {
        "/schedule": {
            "get": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Reload the schedule and reconcile course statuses",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Clear the configuration and generated courses",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/schedule/template": {
            "put": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Replace the weekly template",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/WeeklyTemplate"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/period": {
            "put": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Replace the school-year period",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SchoolYearPeriod"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/vacations": {
            "put": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Replace the vacation intervals",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SaveVacationIntervalsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/regenerate": {
            "post": {
                "tags": [
                    "Schedule"
                ],
                "summary": "Regenerate every course of the school year",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "No configuration saved yet",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/courses": {
            "get": {
                "tags": [
                    "Courses"
                ],
                "summary": "List the courses of one date",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/courses/{id}": {
            "get": {
                "tags": [
                    "Courses"
                ],
                "summary": "Get a course by id",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/courses/{id}/details": {
            "patch": {
                "tags": [
                    "Courses"
                ],
                "summary": "Patch the student's notes on a course",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CourseDetailsPatch"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/courses/{id}/status": {
            "patch": {
                "tags": [
                    "Courses"
                ],
                "summary": "Override a course status",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateCourseStatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/week": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Courses of the week under the calendar cursor",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/month": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Courses of one month",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "required": true
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "type": "integer",
                        "required": true,
                        "description": "1-12"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/search": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Search courses by subject and notes",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/next": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Next course that has not started",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/today": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Remaining courses of today",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/statistics": {
            "get": {
                "tags": [
                    "Queries"
                ],
                "summary": "Course counts per status",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/navigation": {
            "get": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Current calendar cursor",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/navigation/next": {
            "post": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Move the cursor one week forward",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/navigation/previous": {
            "post": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Move the cursor one week back",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/navigation/today": {
            "post": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Reset the cursor to today",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/navigation/select": {
            "post": {
                "tags": [
                    "Navigation"
                ],
                "summary": "Select a date and jump to its week",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectDateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/backup": {
            "get": {
                "tags": [
                    "Backup"
                ],
                "summary": "Download the persisted schedule as JSON",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "File download",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Backup"
                ],
                "summary": "Restore a JSON backup",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ScheduleData"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/export/week": {
            "get": {
                "tags": [
                    "Export"
                ],
                "summary": "Export one week as csv, pdf or xlsx",
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "parameters": [
                    {
                        "name": "start",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Any date of the week"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File download",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule/export/calendar.ics": {
            "get": {
                "tags": [
                    "Export"
                ],
                "summary": "Export every course as an iCalendar feed",
                "produces": [
                    "text/calendar"
                ],
                "responses": {
                    "200": {
                        "description": "File download",
                        "schema": {
                            "type": "file"
                        }
                    }
                }
            }
        },
        "/activities": {
            "get": {
                "tags": [
                    "Activities"
                ],
                "summary": "List personal activities",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Only this date, ordered by start time"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Activities"
                ],
                "summary": "Create a personal activity",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateActivityRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/activities/{id}": {
            "patch": {
                "tags": [
                    "Activities"
                ],
                "summary": "Patch a personal activity",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ActivityPatch"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Activities"
                ],
                "summary": "Delete a personal activity",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/activities/{id}/toggle": {
            "post": {
                "tags": [
                    "Activities"
                ],
                "summary": "Flip the completion flag",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "fields": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
            }
        },
        "WeeklyTemplateSlot": {
            "type": "object",
            "required": [
                "id",
                "startTime",
                "endTime",
                "subjectName"
            ],
            "properties": {
                "id": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string",
                    "example": "08:00"
                },
                "endTime": {
                    "type": "string",
                    "example": "09:00"
                },
                "subjectName": {
                    "type": "string"
                },
                "room": {
                    "type": "string"
                },
                "colorTag": {
                    "type": "string"
                }
            }
        },
        "WeeklyTemplate": {
            "type": "object",
            "properties": {
                "monday": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyTemplateSlot"
                    }
                },
                "tuesday": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyTemplateSlot"
                    }
                },
                "wednesday": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyTemplateSlot"
                    }
                },
                "thursday": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyTemplateSlot"
                    }
                },
                "friday": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/WeeklyTemplateSlot"
                    }
                }
            }
        },
        "SchoolYearPeriod": {
            "type": "object",
            "properties": {
                "startDate": {
                    "type": "string",
                    "format": "date"
                },
                "endDate": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "VacationInterval": {
            "type": "object",
            "required": [
                "id",
                "startDate",
                "endDate"
            ],
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string",
                    "format": "date"
                },
                "endDate": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "SaveVacationIntervalsRequest": {
            "type": "object",
            "properties": {
                "vacationIntervals": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/VacationInterval"
                    }
                }
            }
        },
        "CourseDetailsPatch": {
            "type": "object",
            "properties": {
                "theme": {
                    "type": "string"
                },
                "objectives": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "activities": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "evaluationType": {
                    "type": "string"
                },
                "unit": {
                    "type": "string"
                },
                "personalNotes": {
                    "type": "string"
                }
            }
        },
        "UpdateCourseStatusRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "upcoming",
                        "in_progress",
                        "completed",
                        "cancelled"
                    ]
                }
            }
        },
        "SelectDateRequest": {
            "type": "object",
            "required": [
                "date"
            ],
            "properties": {
                "date": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "ScheduleData": {
            "type": "object",
            "properties": {
                "configuration": {
                    "type": "object"
                },
                "generatedCourses": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "isConfigured": {
                    "type": "boolean"
                }
            }
        },
        "CreateActivityRequest": {
            "type": "object",
            "required": [
                "title",
                "date",
                "startTime",
                "endTime"
            ],
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date"
                },
                "startTime": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                },
                "activityType": {
                    "type": "string",
                    "enum": [
                        "study",
                        "sport",
                        "leisure",
                        "appointment",
                        "other"
                    ]
                },
                "colorTag": {
                    "type": "string"
                },
                "reminderEnabled": {
                    "type": "boolean"
                }
            }
        },
        "ActivityPatch": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                },
                "activityType": {
                    "type": "string"
                },
                "colorTag": {
                    "type": "string"
                },
                "reminderEnabled": {
                    "type": "boolean"
                },
                "complete": {
                    "type": "boolean"
                }
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
