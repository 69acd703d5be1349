package api

// Response is the envelope every order endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	OrderID string      `json:"orderId,omitempty"`
	ID      string      `json:"id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}
