package model

// HealthResponse reports the state of the service and its backends
type HealthResponse struct {
	Status     string `json:"status"`
	TokenStore string `json:"tokenStore"`
	Kafka      string `json:"kafka"`
}
