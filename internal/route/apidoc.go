package route

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteDoc describes one endpoint for the OpenAPI document. The table
// below is the single source of documentation metadata: declarative,
// assembled at compile time, colocated with the handlers it describes.
type RouteDoc struct {
	Method   string
	Path     string
	Summary  string
	Tags     []string
	Security string // "", "bearer" or "apikey"
	Statuses []int
}

var routeDocs = []RouteDoc{
	{Method: "POST", Path: "/register", Summary: "Register a new user via Keycloak and log them in", Tags: []string{"Authentication"}, Statuses: []int{201, 400, 409}},
	{Method: "POST", Path: "/login", Summary: "Authenticate with email and password", Tags: []string{"Authentication"}, Statuses: []int{200, 400, 401}},
	{Method: "POST", Path: "/refresh", Summary: "Exchange a refresh token for new tokens", Tags: []string{"Authentication"}, Statuses: []int{200, 400, 401}},
	{Method: "POST", Path: "/loginOnToken", Summary: "Validate the bearer token and return its identity", Tags: []string{"Authentication"}, Security: "bearer", Statuses: []int{200, 401}},
	{Method: "GET", Path: "/recordInfo", Summary: "User profile and recording statistics", Tags: []string{"Users"}, Security: "bearer", Statuses: []int{200, 401}},
	{Method: "GET", Path: "/folders", Summary: "List the user's folders, seeding defaults on first use", Tags: []string{"Folders"}, Security: "bearer", Statuses: []int{200, 401}},
	{Method: "POST", Path: "/folders", Summary: "Create a folder", Tags: []string{"Folders"}, Security: "bearer", Statuses: []int{201, 400, 401}},
	{Method: "PUT", Path: "/folders/{id}", Summary: "Update a folder's name and description", Tags: []string{"Folders"}, Security: "bearer", Statuses: []int{200, 400, 401, 403, 404}},
	{Method: "DELETE", Path: "/folders/{id}", Summary: "Delete a folder and all records in it", Tags: []string{"Folders"}, Security: "bearer", Statuses: []int{204, 401, 403, 404, 500}},
	{Method: "GET", Path: "/records", Summary: "Search and page through the user's records", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{200, 401}},
	{Method: "POST", Path: "/records", Summary: "Upload a recording with metadata", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{201, 400, 401, 403, 404, 500}},
	{Method: "GET", Path: "/records/{id}/audio", Summary: "Download the recording's audio", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{200, 401, 403, 404}},
	{Method: "GET", Path: "/records/{id}/pdf", Summary: "Export the transcript as PDF", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{200, 401, 403, 404, 500}},
	{Method: "GET", Path: "/records/{id}/subtitles", Summary: "Export the transcript as SRT or WebVTT", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{200, 400, 401, 403, 404}},
	{Method: "DELETE", Path: "/records/{id}", Summary: "Delete a record, its segments and its audio", Tags: []string{"Records"}, Security: "bearer", Statuses: []int{204, 401, 403, 404, 500}},
	{Method: "POST", Path: "/records/{id}/transcribe", Summary: "Transcription worker callback", Tags: []string{"Records"}, Security: "apikey", Statuses: []int{200, 400, 401, 404}},
	{Method: "GET", Path: "/health", Summary: "Liveness check", Tags: []string{"System"}, Statuses: []int{200}},
}

var statusDescriptions = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	400: "Validation error",
	401: "Missing or invalid credentials",
	403: "Not the resource owner",
	404: "Resource not found",
	409: "Duplicate identity",
	500: "Internal error",
}

func openAPIDocument(c *gin.Context) {
	paths := gin.H{}
	for _, doc := range routeDocs {
		responses := gin.H{}
		for _, status := range doc.Statuses {
			responses[strconv.Itoa(status)] = gin.H{"description": statusDescriptions[status]}
		}

		operation := gin.H{
			"summary":   doc.Summary,
			"tags":      doc.Tags,
			"responses": responses,
		}
		switch doc.Security {
		case "bearer":
			operation["security"] = []gin.H{{"bearerAuth": []string{}}}
		case "apikey":
			operation["security"] = []gin.H{{"apiKey": []string{}}}
		}

		entry, ok := paths[doc.Path].(gin.H)
		if !ok {
			entry = gin.H{}
			paths[doc.Path] = entry
		}
		entry[strings.ToLower(doc.Method)] = operation
	}

	c.JSON(http.StatusOK, gin.H{
		"openapi": "3.0.3",
		"info": gin.H{
			"title":   "Smart Dictophone API",
			"version": "1.0.0",
		},
		"paths": paths,
		"components": gin.H{
			"securitySchemes": gin.H{
				"bearerAuth": gin.H{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
				"apiKey":     gin.H{"type": "apiKey", "in": "header", "name": "X-API-Key"},
			},
		},
	})
}
