package response

// Response represents a standard API response format
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// List returns a success response for list payloads, carrying the item count
func List(data interface{}, count int) Response {
	return Response{
		Success: true,
		Data:    data,
		Count:   &count,
	}
}

// Error returns a standard error response wrapping the error message
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// ErrorWithDetail returns an error response that also carries detail text.
// Only development surfaces should pass detail through.
func ErrorWithDetail(message, detail string) Response {
	return Response{
		Success: false,
		Message: message,
		Error:   detail,
	}
}
