package model

// Tier selects which model a provider serves a request with.
type Tier string

const (
	TierDev  Tier = "dev"
	TierProd Tier = "prod"
)

// ClientStatus reports whether a provider client has credentials configured.
type ClientStatus string

const (
	ClientConnected     ClientStatus = "connected"
	ClientNotConfigured ClientStatus = "not_configured"
)

// ProviderProfile describes an LLM provider for cost estimation.
type ProviderProfile struct {
	ID              string          `json:"provider_id" yaml:"provider_id" mapstructure:"provider_id"`
	Name            string          `json:"name" yaml:"name" mapstructure:"name"`
	Enabled         bool            `json:"is_enabled" yaml:"is_enabled" mapstructure:"is_enabled"`
	Models          map[Tier]string `json:"models" yaml:"models" mapstructure:"models"`
	CostPer1KInput  float64         `json:"cost_per_1k_input" yaml:"cost_per_1k_input" mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64         `json:"cost_per_1k_output" yaml:"cost_per_1k_output" mapstructure:"cost_per_1k_output"`
	ClientStatus    ClientStatus    `json:"client_status" yaml:"client_status" mapstructure:"client_status"`
}

// Connected reports whether the provider can serve requests.
func (p ProviderProfile) Connected() bool {
	return p.ClientStatus == ClientConnected
}

// Model returns the model identifier for the tier, or "" if none.
func (p ProviderProfile) Model(tier Tier) string {
	return p.Models[tier]
}
