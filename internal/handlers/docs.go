package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Weather History API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	kindParam := map[string]interface{}{
		"name":        "kind",
		"in":          "query",
		"description": "Record kind to report over (default: current)",
		"required":    false,
		"schema":      map[string]interface{}{"type": "string", "enum": []string{"current", "historical"}},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Weather History API",
			"description": "Weather observation storage and analysis engine with document store persistence, upstream ingestion, and statistical reports",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Weather History Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/observations/current": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List current observations",
					"description": "Retrieve current observations with optional filters, combined by AND",
					"parameters": []map[string]interface{}{
						{
							"name":        "location",
							"in":          "query",
							"description": "Exact location match",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "min_temp",
							"in":          "query",
							"description": "Inclusive lower temperature bound in °C",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "max_temp",
							"in":          "query",
							"description": "Inclusive upper temperature bound in °C",
							"required":    false,
							"schema":      map[string]string{"type": "number"},
						},
						{
							"name":        "sort",
							"in":          "query",
							"description": "Result order: time or temperature (default: insertion order)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"time", "temperature"}},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"id":          map[string]string{"type": "string"},
														"location":    map[string]string{"type": "string"},
														"temperature": map[string]string{"type": "number"},
														"humidity":    map[string]interface{}{"type": "number", "nullable": true},
														"wind_speed":  map[string]interface{}{"type": "number", "nullable": true},
														"timestamp":   map[string]string{"type": "string", "format": "date-time"},
														"source":      map[string]string{"type": "string"},
													},
												},
											},
											"count": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/observations/historical": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List historical observations",
					"description": "Retrieve daily historical observations with optional filters, combined by AND",
					"parameters": []map[string]interface{}{
						{
							"name":        "location",
							"in":          "query",
							"description": "Exact location match",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "start_date",
							"in":          "query",
							"description": "Inclusive start date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "end_date",
							"in":          "query",
							"description": "Inclusive end date (YYYY-MM-DD)",
							"required":    false,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
						{
							"name":        "sort",
							"in":          "query",
							"description": "Result order: time or temperature (default: insertion order)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "string", "enum": []string{"time", "temperature"}},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/ingest/current/{location}": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Ingest a current observation",
					"description": "Fetch the current reading for a location from the configured provider and store it",
					"parameters": []map[string]interface{}{
						{
							"name":     "location",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Observation stored"},
						"400": map[string]interface{}{"description": "Reading failed validation"},
						"404": map[string]interface{}{"description": "Location not found"},
						"502": map[string]interface{}{"description": "Upstream provider failure"},
					},
				},
			},
			"/api/ingest/historical/{location}": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Ingest historical observations",
					"description": "Fetch past daily records for a location and store them",
					"parameters": []map[string]interface{}{
						{
							"name":     "location",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":        "days",
							"in":          "query",
							"description": "Number of past days to ingest (default: 7, max: 92)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 7},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{"description": "Ingestion run summary"},
					},
				},
			},
			"/api/reports/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Summary statistics",
					"description": "Count, unique locations, mean, extremes, and range over all stored records of a kind",
					"parameters":  []map[string]interface{}{kindParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Summary statistics"},
						"404": map[string]interface{}{"description": "No records stored"},
					},
				},
			},
			"/api/reports/location/{location}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-location report",
					"description": "Statistics plus temperature trend for one location; trend is omitted below two records",
					"parameters": []map[string]interface{}{
						{
							"name":     "location",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						kindParam,
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Location report"},
						"404": map[string]interface{}{"description": "No records for the location"},
					},
				},
			},
			"/api/reports/compare": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Compare two locations",
					"description": "Side-by-side statistics with mean temperature delta (b minus a)",
					"parameters": []map[string]interface{}{
						{
							"name":     "a",
							"in":       "query",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":     "b",
							"in":       "query",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						kindParam,
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Comparison"},
						"404": map[string]interface{}{"description": "Either location has no records"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running and which storage backend is active",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status":            map[string]string{"type": "string"},
											"storage_connected": map[string]string{"type": "boolean"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
