package handlers

import (
	"encoding/json"
	"net/http"
)

// RouteNotFound answers requests that match no route with the error envelope.
func RouteNotFound(w http.ResponseWriter, _ *http.Request) {
	writeErrorBody(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeErrorBody(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&ErrorBody{Status: "error", Message: msg})
}
