package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AuthLogoutResponse struct {
	Status string `json:"status"`
}

type RegisterResponse struct {
	Success bool     `json:"success"`
	User    Identity `json:"user"`
}

type SessionResponse struct {
	User    *Identity `json:"user,omitempty"`
	Expires string    `json:"expires,omitempty"`
}
