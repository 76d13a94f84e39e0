package types

// StatusResponse reports the last known pipeline health.
type StatusResponse struct {
	Online bool `json:"online"`
}
