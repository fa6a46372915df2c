package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope returned by every endpoint
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondJSON writes a JSON response with the given status code
func RespondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondError writes a JSON error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Response{Success: false, Error: message})
}

// RespondData writes a successful JSON response carrying data
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	RespondJSON(w, status, Response{Success: true, Data: data})
}
