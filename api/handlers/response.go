package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/busops/bus-ops-api/config"
	"github.com/busops/bus-ops-api/models"
)

// writeResult maps a core operation result onto the HTTP response envelope
func writeResult(w http.ResponseWriter, result models.Result) {
	b, err := json.Marshal(result.Envelope())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(result.Code)
	w.Write(b)
}

// writeData writes a successful envelope with the given message and data
func writeData(w http.ResponseWriter, code int, message string, data interface{}) {
	writeResult(w, models.Result{
		Code:    code,
		Success: true,
		Message: message,
		Data:    data,
	})
}
