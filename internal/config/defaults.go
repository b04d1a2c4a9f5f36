package config

// Default returns the baseline configuration before file and environment
// overrides are applied.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   "~/satchel/inbox",
			StagingDir: "~/satchel/staging",
			LogDir:     "~/.local/state/satchel/logs",
			DataDir:    "~/.local/share/satchel",
		},
		Registry: Registry{
			BaseURL:        "",
			TimeoutSeconds: 30,
			Notifications:  true,
		},
		Storage: Storage{
			BaseURL:        "",
			BasePath:       "/articles",
			TimeoutSeconds: 60,
		},
		Checkout: Checkout{
			WorkerPoolSize:      4,
			PollIntervalSeconds: 30,
			MaxRetries:          3,
		},
		Intake: Intake{
			PollIntervalSeconds: 10,
		},
		Workflow: Workflow{
			ErrorRetryIntervalSeconds: 15,
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}
