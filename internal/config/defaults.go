package config

// Defaults returns a Config with sensible default values. The default LLM
// points at a local LM Studio server so the assistant works without any
// cloud account.
func Defaults() *Config {
	return &Config{
		Crew: CrewConfig{
			MaxTokens:    4096,
			Temperature:  0.7,
			MaxToolCalls: 10,
			SaveSessions: true,
			Verbose:      false,
		},
		LLM: LLMConfig{
			Provider:    "lmstudio",
			Model:       "qwen2.5-coder-7b-instruct",
			BaseURL:     "http://localhost:1234/v1",
			MaxRetries:  3,
			TimeoutSecs: 120,
		},
		Channels: ChannelsConfig{},
		Memory: MemoryConfig{
			Enabled:      true,
			MaxSnapshots: 50,
		},
		Security: SecurityConfig{
			UseKeyring:      true,
			ToolTimeoutSecs: 60,
		},
		SetupCompleted: false,
	}
}
