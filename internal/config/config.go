package config

// Config is the top-level application configuration.
type Config struct {
	Crew           CrewConfig     `json:"crew"`
	LLM            LLMConfig      `json:"llm"`
	FallbackLLM    *LLMConfig     `json:"fallback_llm,omitempty"`
	Channels       ChannelsConfig `json:"channels"`
	Memory         MemoryConfig   `json:"memory"`
	Security       SecurityConfig `json:"security"`
	SetupCompleted bool           `json:"setup_completed"`
}

// CrewConfig governs how agents run tasks.
type CrewConfig struct {
	MaxTokens    int      `json:"max_tokens"`
	Temperature  float64  `json:"temperature"`
	MaxToolCalls int      `json:"max_tool_calls"`
	AllowedTools []string `json:"allowed_tools,omitempty"` // empty allows all
	DataDir      string   `json:"data_dir,omitempty"`
	SaveSessions bool     `json:"save_sessions"`
	Verbose      bool     `json:"verbose"`
}

type LLMConfig struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key,omitempty"` // "[keyring]" defers to the OS keyring
	BaseURL     string `json:"base_url,omitempty"`
	MaxRetries  int    `json:"max_retries"`
	TimeoutSecs int    `json:"timeout_secs"`
}

type ChannelsConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token      string  `json:"token"`
	AllowedIDs []int64 `json:"allowed_ids,omitempty"`
}

type MemoryConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path,omitempty"`
	MaxSnapshots int    `json:"max_snapshots"`
}

type SecurityConfig struct {
	UseKeyring      bool   `json:"use_keyring"`
	ToolTimeoutSecs int    `json:"tool_timeout_secs"`
	WorkspaceDir    string `json:"workspace_dir,omitempty"`
}
