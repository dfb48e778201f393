package response

import "github.com/vipinnagar8700/meditationLife-sub000/internal"

type APIResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Stats      interface{} `json:"stats,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Success(data interface{}, message string) APIResponse {
	return APIResponse{Success: true, Data: data, Message: message}
}

func Page(data interface{}, pagination interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Pagination: pagination}
}

func Stats(stats interface{}) APIResponse {
	return APIResponse{Success: true, Stats: stats}
}

func Message(msg string) APIResponse {
	return APIResponse{Success: true, Message: msg}
}

// Failure renders an AppError. The wrapped cause never reaches the client.
func Failure(err *internal.AppError) APIResponse {
	return APIResponse{Success: false, Error: err.Code, Message: err.Message}
}
