package model

// ClientInfo identifies the account a connected client is logged in as.
type ClientInfo struct {
	ID       string `json:"id"`
	PushName string `json:"pushname"`
	Platform string `json:"platform,omitempty"`
}

type StatusSnapshot struct {
	Status          SessionStatus
	Authenticated   bool
	EverInitialized bool
	HasClient       bool
	Info            *ClientInfo
}
