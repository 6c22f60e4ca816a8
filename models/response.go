package models

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

// Result is the outcome of a core operation before it is written out. The
// Code carries the HTTP status the operation maps to; over the websocket
// channels the whole struct is sent as-is.
type Result struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Data    interface{} `json:"data"`
}

// Envelope converts a Result into the HTTP response envelope
func (r Result) Envelope() Response {
	data := r.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	return Response{
		Success: r.Success,
		Message: r.Message,
		Data:    data,
		Error:   r.Error,
	}
}

// HealthCheckResponse returns the health check response struct
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
