package models

// Decision is the routing decision returned to an authenticated caller.
type Decision struct {
	DapRoute bool `json:"dap_route"`
}

// Message is the body returned when a request is rejected.
type Message struct {
	Message string `json:"message"`
}
