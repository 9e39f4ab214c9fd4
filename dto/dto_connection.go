package dto

type ConnectionRequest struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
}

type RespondConnectionRequest struct {
	// Status is the target state: "accepted", "declined", or "blocked".
	Status string `json:"status"`
}
