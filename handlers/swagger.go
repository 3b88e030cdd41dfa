package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the collab service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>legalmind-collab Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "legalmind-collab", "version": "v0.1.0" },
  "paths": {
    "/api/documents": {
      "get": { "summary": "List documents (optional ?caseId=)", "responses": { "200": { "description": "documents" } } },
      "post": { "summary": "Register a document", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"caseId":{"type":"string"},"content":{"type":"string"}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation failure" } } }
    },
    "/api/documents/{id}/presence": {
      "get": { "summary": "Editors active within the liveness window", "responses": { "200": { "description": "entries, most recent first" }, "404": { "description": "unknown document" } } },
      "post": { "summary": "Join the document", "responses": { "200": { "description": "presence record" } } },
      "delete": { "summary": "Leave the document", "responses": { "204": { "description": "left" } } }
    },
    "/api/documents/{id}/presence/heartbeat": {
      "post": { "summary": "Refresh a live presence record", "responses": { "200": { "description": "{refreshed: bool}" } } }
    },
    "/api/documents/{id}/presence/stream": {
      "get": { "summary": "Websocket: join, heartbeat per frame, receive presence snapshots", "responses": { "101": { "description": "upgraded" } } }
    },
    "/api/documents/{id}/versions": {
      "get": { "summary": "Version history, oldest first", "responses": { "200": { "description": "versions" } } },
      "post": { "summary": "Save a version (demotes the others unless keepOthersCurrent)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"content":{"type":"string"},"keepOthersCurrent":{"type":"boolean"}}}}}}, "responses": { "201": { "description": "saved" } } }
    },
    "/api/documents/{id}/versions/current": { "get": { "summary": "Current version", "responses": { "200": { "description": "version" }, "404": { "description": "no versions" } } } },
    "/api/documents/{id}/versions/{versionId}": { "get": { "summary": "One version", "responses": { "200": { "description": "version" }, "404": { "description": "not found" } } } },
    "/api/documents/{id}/versions/{versionId}/restore": { "post": { "summary": "Save a copy of an earlier version as current", "responses": { "201": { "description": "restored" } } } },
    "/api/documents/{id}/comments": {
      "get": { "summary": "Comments in insertion order", "responses": { "200": { "description": "comments" } } },
      "post": { "summary": "Add a comment", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "empty text" } } }
    },
    "/api/documents/{id}/comments/{commentId}": {
      "patch": { "summary": "Edit a comment", "responses": { "200": { "description": "updated" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a comment (no-op when absent)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/documents/{id}/collaborators": {
      "get": { "summary": "Roster with derived status", "responses": { "200": { "description": "collaborators" } } },
      "post": { "summary": "Invite by email", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"}}}}}}, "responses": { "201": { "description": "invited" }, "400": { "description": "invalid or duplicate email" } } }
    },
    "/api/documents/{id}/collaborators/{collaboratorId}": { "delete": { "summary": "Remove collaborator", "responses": { "204": { "description": "removed" } } } },
    "/api/documents/{id}/collaborators/{collaboratorId}/accept": { "post": { "summary": "Accept an invitation", "responses": { "200": { "description": "accepted" }, "404": { "description": "not found" } } } },
    "/api/documents/{id}/collaborators/{collaboratorId}/status": { "put": { "summary": "Set stored status (online, away, offline)", "responses": { "204": { "description": "updated" } } } },
    "/api/notifications": {
      "get": { "summary": "Notifications, newest first, with unread count", "responses": { "200": { "description": "notifications" } } },
      "post": { "summary": "Create a notification", "responses": { "201": { "description": "created" } } },
      "delete": { "summary": "Clear all notifications", "responses": { "204": { "description": "cleared" } } }
    },
    "/api/notifications/unread-count": { "get": { "summary": "Unread count from the store", "responses": { "200": { "description": "count" } } } },
    "/api/notifications/badge": { "get": { "summary": "Cached unread badge", "responses": { "200": { "description": "count" } } } },
    "/api/notifications/read-all": { "post": { "summary": "Mark all read", "responses": { "204": { "description": "done" } } } },
    "/api/notifications/stream": { "get": { "summary": "Websocket: snapshot then every transition", "responses": { "101": { "description": "upgraded" } } } },
    "/api/notifications/{notificationId}/read": { "post": { "summary": "Mark read", "responses": { "204": { "description": "done" } } } },
    "/api/notifications/{notificationId}": { "delete": { "summary": "Delete a notification", "responses": { "204": { "description": "deleted" } } } },
    "/api/deadlines": {
      "get": { "summary": "Case deadlines by due date", "responses": { "200": { "description": "deadlines" } } },
      "post": { "summary": "Add a deadline", "responses": { "201": { "description": "created" } } }
    },
    "/api/deadlines/{deadlineId}": {
      "put": { "summary": "Replace a deadline", "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Remove a deadline", "responses": { "204": { "description": "removed" } } }
    },
    "/api/deadlines/scan": { "post": { "summary": "Run the deadline scanner now", "responses": { "200": { "description": "{created: n}" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
