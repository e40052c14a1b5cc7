package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LAKGS API",
        "description": "Learning activity and knowledge-graph service for history classrooms",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Student and teacher sessions"},
        {"name": "Learning", "description": "Textbook browsing and learning activity"},
        {"name": "Knowledge", "description": "Keyword, topic and timeline queries"},
        {"name": "AI", "description": "LLM backed tutoring, explanations, questions and essay grading"},
        {"name": "Classroom", "description": "In-class questions and replies"},
        {"name": "Analytics", "description": "Teacher dashboards"},
        {"name": "Reports", "description": "Generated learning reports"},
        {"name": "Admin", "description": "Destructive maintenance and exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness with graph store and content status", "responses": {"200": {"description": "ok or degraded"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auth/student/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Student login by student number",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/StudentLoginRequest"}}],
                "responses": {"200": {"description": "Session token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error"}}
            }
        },
        "/api/v1/auth/teacher/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Teacher login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherLoginRequest"}}],
                "responses": {"200": {"description": "Session token"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/api/v1/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "End the current session", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/auth/me": {
            "get": {"tags": ["Auth"], "summary": "Current session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/content/textbooks": {
            "get": {"tags": ["Learning"], "summary": "List textbooks", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/content/textbooks/{id}/units": {
            "get": {
                "tags": ["Learning"], "summary": "Units of a textbook", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Textbook not found"}}
            }
        },
        "/api/v1/content/units/{id}/lessons": {
            "get": {
                "tags": ["Learning"], "summary": "Lessons of a unit", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/modules/{module}/enter": {
            "get": {
                "tags": ["Learning"], "summary": "Enter a module and record the visit", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "module", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Module landing with recent activity"}}
            }
        },
        "/api/v1/lessons/{id}": {
            "get": {
                "tags": ["Learning"], "summary": "Lesson detail with linked events, figures and concepts", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "module", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Lesson not found"}}
            }
        },
        "/api/v1/activities/notes": {
            "post": {"tags": ["Learning"], "summary": "Save a learning note", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/activities/answers": {
            "post": {"tags": ["Learning"], "summary": "Submit a practice answer", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/knowledge/search": {
            "get": {
                "tags": ["Knowledge"], "summary": "Keyword search", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "q", "required": true, "type": "string"},
                    {"in": "query", "name": "kind", "type": "string", "enum": ["all", "lesson", "event", "figure", "concept"]},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "Knowledge bundle"}, "400": {"description": "Validation error"}}
            }
        },
        "/api/v1/knowledge/topics": {
            "get": {"tags": ["Knowledge"], "summary": "List topics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/knowledge/topics/{name}": {
            "get": {
                "tags": ["Knowledge"], "summary": "Knowledge bundle of a topic", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "name", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Topic not found"}}
            }
        },
        "/api/v1/knowledge/timeline": {
            "get": {
                "tags": ["Knowledge"], "summary": "Dated events in a year range", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "start", "type": "integer"},
                    {"in": "query", "name": "end", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/knowledge/related": {
            "post": {"tags": ["Knowledge"], "summary": "Knowledge related to a free-text question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/ai/chat": {
            "post": {"tags": ["AI"], "summary": "Tutoring chat", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Reply, with meta.warnings on retries"}, "503": {"description": "LLM unavailable"}}}
        },
        "/api/v1/ai/explain": {
            "post": {"tags": ["AI"], "summary": "Explain a topic at a level (cached)", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Explanation, textbook excerpt when the LLM is down"}}}
        },
        "/api/v1/ai/questions": {
            "post": {"tags": ["AI"], "summary": "Generate practice questions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "502": {"description": "Malformed generation"}}}
        },
        "/api/v1/ai/essays/grade": {
            "post": {"tags": ["AI"], "summary": "Grade an essay answer", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Score and feedback"}}}
        },
        "/api/v1/ai/wrong-questions": {
            "get": {"tags": ["AI"], "summary": "Wrong-question book of the session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/classroom/active": {
            "get": {"tags": ["Classroom"], "summary": "Active classroom question", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/classroom/active/replies": {
            "post": {"tags": ["Classroom"], "summary": "Reply to the active question (students)", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "409": {"description": "No active question"}}}
        },
        "/api/v1/classroom/questions": {
            "post": {"tags": ["Classroom"], "summary": "Ask a new question, closing the previous one", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/classroom/questions/{id}/close": {
            "post": {
                "tags": ["Classroom"], "summary": "Close a question", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Question not found"}}
            }
        },
        "/api/v1/classroom/questions/{id}/replies": {
            "get": {
                "tags": ["Classroom"], "summary": "Replies to a question", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/classroom/questions/{id}/summary": {
            "post": {
                "tags": ["Classroom"], "summary": "Summarise replies with the LLM", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/analytics/summary": {
            "get": {"tags": ["Analytics"], "summary": "Headline counters", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK, meta.banner when the store is offline"}}}
        },
        "/api/v1/analytics/trend": {
            "get": {
                "tags": ["Analytics"], "summary": "Zero-filled daily activity trend", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "days", "type": "integer", "default": 7}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/analytics/modules": {
            "get": {"tags": ["Analytics"], "summary": "Statistics of every module", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/analytics/modules/{module}": {
            "get": {
                "tags": ["Analytics"], "summary": "Statistics of one module", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "module", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/analytics/leaderboard": {
            "get": {
                "tags": ["Analytics"], "summary": "Most active students", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "module", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/analytics/students/{id}": {
            "get": {
                "tags": ["Analytics"], "summary": "Activities of a student", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "module", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer", "default": 50}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid limit"}}
            }
        },
        "/api/v1/analytics/students/{id}/modules/{module}": {
            "get": {
                "tags": ["Analytics"], "summary": "Student drill-down in one module", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "path", "name": "module", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/analytics/system": {
            "get": {"tags": ["Analytics"], "summary": "Process metrics snapshot", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/reports": {
            "post": {
                "tags": ["Reports"], "summary": "Generate a learning report", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}],
                "responses": {"200": {"description": "Report with signed download URL"}, "429": {"description": "LLM rate limited"}}
            }
        },
        "/api/v1/reports/download": {
            "get": {
                "tags": ["Reports"], "summary": "Download a stored report",
                "produces": ["text/markdown"],
                "parameters": [{"in": "query", "name": "token", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Markdown file"}, "403": {"description": "Invalid or expired token"}}
            }
        },
        "/api/v1/admin/activities": {
            "delete": {"tags": ["Admin"], "summary": "Delete every activity", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Deleted count"}}}
        },
        "/api/v1/admin/students/{id}": {
            "delete": {
                "tags": ["Admin"], "summary": "Delete a student and their activities", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Student not found"}}
            }
        },
        "/api/v1/admin/migrations/field-names": {
            "post": {"tags": ["Admin"], "summary": "Rename legacy activity fields and module names", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Migration counts"}}}
        },
        "/api/v1/admin/exports/activities": {
            "get": {
                "tags": ["Admin"], "summary": "Export the activity log", "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}],
                "responses": {"200": {"description": "Attachment"}}
            }
        }
    },
    "definitions": {
        "StudentLoginRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "TeacherLoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["scope"],
            "properties": {
                "scope": {"type": "string", "enum": ["student", "module", "overall"]},
                "key": {"type": "string"}
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
