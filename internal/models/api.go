package models

// APIStatus enumerates the status values used in API responses.
type APIStatus string

const (
	// APIStatusOK indicates a successful API operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed API operation.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for API endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and
// optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
