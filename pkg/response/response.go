package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"` // structured error payload (e.g. shortfall list)
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ErrorWithDetails returns an error response carrying a structured payload,
// used for itemized failures like insufficient-stock shortfall lists.
func ErrorWithDetails(statusCode int, err string, details interface{}) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Details:    details,
	}
}
