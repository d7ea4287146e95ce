// Package api serves the OpenAPI document and the JSON response helpers
// shared by the HTTP handlers.
package api

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
)

// OpenAPISpec returns the embedded document as YAML
func OpenAPISpec() []byte {
	return openAPIYAML
}

// OpenAPISpecJSON converts the document to JSON once and caches the result
func OpenAPISpecJSON() ([]byte, error) {
	jsonOnce.Do(func() {
		var spec map[string]interface{}
		if jsonErr = yaml.Unmarshal(openAPIYAML, &spec); jsonErr != nil {
			return
		}
		jsonSpec, jsonErr = json.Marshal(spec)
	})
	return jsonSpec, jsonErr
}

// OpenAPIHandler serves the document as JSON, or as YAML when the client
// asks for it.
func OpenAPIHandler() http.HandlerFunc {
	return openAPIHandler(OpenAPISpecJSON)
}

func openAPIHandler(toJSON func() ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/yaml" {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(openAPIYAML)
			return
		}
		spec, err := toJSON()
		if err != nil {
			Error(w, http.StatusInternalServerError, "Failed to convert OpenAPI document to JSON")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	}
}
