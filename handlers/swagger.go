package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRoutes) {
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
    <title>forkful API - Swagger</title>
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
  "info": { "title": "forkful", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "code": {"type":"string","enum":["INVALID_INPUT","UNAUTHORIZED","FORBIDDEN","NOT_FOUND","CONFLICT","INTERNAL"]}, "details": {"type":"string"} } },
      "RecipeInput": { "type": "object", "required": ["title","ingredients","instructions"], "properties": {
        "title": {"type":"string","minLength":3,"maxLength":100},
        "description": {"type":"string"},
        "ingredients": {"type":"array","maxItems":20,"items":{"type":"string","maxLength":150}},
        "instructions": {"type":"array","maxItems":15,"items":{"type":"string","maxLength":300}},
        "tags": {"type":"array","items":{"type":"string"}},
        "image": {"type":"string","format":"binary"} } }
    }
  },
  "paths": {
    "/auth/register": { "post": { "summary": "Create an account", "responses": { "201": { "description": "tokens and user" }, "400": { "description": "invalid input" }, "409": { "description": "username or email taken" } } } },
    "/auth/login": { "post": { "summary": "Log in with email and password", "responses": { "200": { "description": "tokens and user" }, "401": { "description": "invalid credentials" } } } },
    "/auth/refresh": { "post": { "summary": "Rotate refresh token", "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh" } } } },
    "/auth/logout": { "post": { "summary": "Revoke refresh token and blacklist access token", "responses": { "200": { "description": "logged out" } } } },
    "/auth/me": { "get": { "summary": "Current account", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" }, "401": { "description": "unauthenticated" } } } },
    "/recipes": {
      "get": { "summary": "List recipes", "parameters": [
        {"name":"search","in":"query","schema":{"type":"string"}},
        {"name":"tag","in":"query","schema":{"type":"string"}},
        {"name":"page","in":"query","schema":{"type":"integer","minimum":1}},
        {"name":"limit","in":"query","schema":{"type":"integer","minimum":1,"maximum":50}},
        {"name":"sort","in":"query","schema":{"type":"string","enum":["createdAt","rating"]}},
        {"name":"order","in":"query","schema":{"type":"string","enum":["asc","desc"]}} ],
        "responses": { "200": { "description": "recipes and pagination" } } },
      "post": { "summary": "Create recipe", "security": [{"bearer":[]}], "requestBody": { "content": { "multipart/form-data": { "schema": {"$ref":"#/components/schemas/RecipeInput"} }, "application/json": { "schema": {"$ref":"#/components/schemas/RecipeInput"} } } }, "responses": { "201": { "description": "created" }, "400": { "description": "invalid input" } } }
    },
    "/recipes/liked": { "get": { "summary": "Recipes liked by the caller", "security": [{"bearer":[]}], "responses": { "200": { "description": "recipes and pagination" } } } },
    "/recipes/{id}": {
      "get": { "summary": "Recipe detail", "responses": { "200": { "description": "recipe" }, "400": { "description": "malformed id" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update recipe", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete recipe", "security": [{"bearer":[]}], "responses": { "200": { "description": "deleted" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } }
    },
    "/recipes/{id}/like": { "post": { "summary": "Toggle like", "security": [{"bearer":[]}], "responses": { "200": { "description": "liked and likesCount" } } } },
    "/recipes/{id}/rate": { "post": { "summary": "Rate 1-5", "security": [{"bearer":[]}], "responses": { "200": { "description": "avgRating and ratingsCount" } } } },
    "/recipes/{id}/comment": { "post": { "summary": "Add comment", "security": [{"bearer":[]}], "responses": { "201": { "description": "comment" } } } },
    "/recipes/{id}/comment/{commentId}": { "delete": { "summary": "Delete comment", "security": [{"bearer":[]}], "responses": { "200": { "description": "deleted" }, "403": { "description": "not allowed" } } } },
    "/users/me": { "put": { "summary": "Update bio and avatar", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" } } } },
    "/users/{id}": { "get": { "summary": "Public profile", "responses": { "200": { "description": "profile and recipes" } } } },
    "/users/{id}/recipes": { "get": { "summary": "Recipes by user", "responses": { "200": { "description": "recipes and pagination" } } } },
    "/users/{id}/followers": { "get": { "summary": "Followers", "responses": { "200": { "description": "users" } } } },
    "/users/{id}/following": { "get": { "summary": "Followed users", "responses": { "200": { "description": "users" } } } },
    "/users/{id}/follow": { "post": { "summary": "Toggle follow", "security": [{"bearer":[]}], "responses": { "200": { "description": "following and followersCount" }, "400": { "description": "self-follow" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
