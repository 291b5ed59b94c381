// Package docs registers the evalconsole OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ask": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ask"],
                "summary": "Generate two candidate answers and serve one",
                "parameters": [
                    {"type": "string", "description": "rule or ltr", "name": "X-Served-Policy", "in": "header"},
                    {"type": "string", "description": "ltr model version", "name": "X-Model-Version", "in": "header"},
                    {"description": "question", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.Question"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AskResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/handler.Detail"}},
                    "422": {"description": "Policy resolution error", "schema": {"$ref": "#/definitions/handler.Detail"}},
                    "502": {"description": "Provider error", "schema": {"$ref": "#/definitions/handler.Detail"}}
                }
            }
        },
        "/feedback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "Record a human judgment over a served pair",
                "parameters": [
                    {"type": "string", "description": "retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "judgment", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.FeedbackInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FeedbackResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/handler.Detail"}},
                    "404": {"description": "Unknown question", "schema": {"$ref": "#/definitions/handler.Detail"}},
                    "409": {"description": "Candidate mismatch or idempotency key reuse", "schema": {"$ref": "#/definitions/handler.Detail"}}
                }
            }
        },
        "/admin/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List registered ltr models, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ModelRecord"}}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Serving and feedback volume",
                "parameters": [
                    {"type": "string", "description": "RFC3339 instant", "name": "as_of", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Stats"}}
                }
            }
        },
        "/admin/leaderboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Feedback wins per provider",
                "parameters": [
                    {"type": "integer", "description": "1-100, default 10", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "handler.Detail": {
            "type": "object",
            "properties": {"detail": {"type": "string"}}
        },
        "handler.AskResponse": {
            "type": "object",
            "properties": {
                "question_id": {"type": "string"},
                "selected_candidate_id": {"type": "string"},
                "selected_answer_summary": {"type": "string"},
                "candidate_a_id": {"type": "string"},
                "candidate_b_id": {"type": "string"},
                "served_choice_candidate_id": {"type": "string"},
                "candidate_a_answer": {"type": "string"},
                "candidate_b_answer": {"type": "string"},
                "candidate_a_provider": {"type": "string"},
                "candidate_b_provider": {"type": "string"},
                "served_policy": {"type": "string", "enum": ["rule", "ltr"]},
                "served_model_version": {"type": "string"}
            }
        },
        "handler.FeedbackResponse": {
            "type": "object",
            "properties": {"feedback_id": {"type": "string"}}
        },
        "model.Question": {
            "type": "object",
            "required": ["question", "domain"],
            "properties": {
                "user": {
                    "type": "object",
                    "properties": {
                        "role": {"type": "string", "enum": ["planner", "designer", "dev", "tester", "other"]},
                        "level": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]}
                    }
                },
                "context": {
                    "type": "object",
                    "properties": {
                        "goal": {"type": "string", "enum": ["concept", "practice", "assignment", "interview", "other"]},
                        "stack": {"type": "string"},
                        "constraints": {"type": "string"}
                    }
                },
                "question": {"type": "string"},
                "domain": {"type": "string"}
            }
        },
        "model.FeedbackInput": {
            "type": "object",
            "required": ["question_id", "candidate_a_id", "candidate_b_id", "user_choice"],
            "properties": {
                "question_id": {"type": "string"},
                "candidate_a_id": {"type": "string"},
                "candidate_b_id": {"type": "string"},
                "user_choice": {"type": "string", "enum": ["a", "b", "tie", "bad"]},
                "reason_tags": {"type": "array", "items": {"type": "string"}},
                "note": {"type": "string"},
                "idempotency_key": {"type": "string"}
            }
        },
        "model.ModelRecord": {
            "type": "object",
            "properties": {
                "model_version": {"type": "string"},
                "snapshot_id": {"type": "string"},
                "feature_version": {"type": "string"},
                "metrics_json": {"type": "object"},
                "artifact_path": {"type": "string"},
                "trained_at": {"type": "string", "format": "date-time"}
            }
        },
        "model.Stats": {
            "type": "object",
            "properties": {
                "total_feedbacks": {"type": "integer"},
                "rule_served": {"type": "integer"},
                "ltr_served": {"type": "integer"},
                "today_feedbacks": {"type": "integer"},
                "as_of": {"type": "string", "format": "date-time"},
                "timezone": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "evalconsole API",
	Description:      "Serves paired candidate answers and records human preference feedback.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
