package model

import "time"

// ================ Config ================
type AgentConfig struct {
	MaxOverdue  int           `envconfig:"AGENT_MAX_OVERDUE" default:"3"`
	MaxPending  int           `envconfig:"AGENT_MAX_PENDING" default:"2"`
	SendTimeout time.Duration `envconfig:"AGENT_SEND_TIMEOUT" default:"10s"`
	Schedule    string        `envconfig:"AGENT_SCHEDULE" default:"0 9 * * *"`
}

type ActivityConfig struct {
	MaxEntries int           `envconfig:"ACTIVITY_MAX_ENTRIES" default:"100"`
	TTL        time.Duration `envconfig:"ACTIVITY_TTL" default:"0s"`
}

type QueryConfig struct {
	PageSize int `envconfig:"QUERY_PAGE_SIZE" default:"10"`
}

type DraftModelConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"DRAFT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"DRAFT_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"DRAFT_TEMPERATURE" default:"0.3"`
}

// Enabled reports whether LLM drafting is configured.
func (c DraftModelConfig) Enabled() bool {
	return c.APIKey != ""
}

type SourceConfig struct {
	FollowUps   string `envconfig:"FOLLOWUP_SOURCE" default:"live"`
	Escalations string `envconfig:"ESCALATION_SOURCE" default:"empty"`
}

// DefaultAgentConfig mirrors the envconfig defaults for callers that skip env loading.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxOverdue:  3,
		MaxPending:  2,
		SendTimeout: 10 * time.Second,
		Schedule:    "0 9 * * *",
	}
}
