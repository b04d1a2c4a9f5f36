package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return err
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}

	c.Registry.BaseURL = strings.TrimRight(strings.TrimSpace(c.Registry.BaseURL), "/")
	c.Registry.Username = strings.TrimSpace(c.Registry.Username)
	c.Registry.APIKey = strings.TrimSpace(c.Registry.APIKey)

	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Storage.Username = strings.TrimSpace(c.Storage.Username)
	c.Storage.APIKey = strings.TrimSpace(c.Storage.APIKey)
	c.Storage.BasePath = "/" + strings.Trim(strings.TrimSpace(c.Storage.BasePath), "/")

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Registry.TimeoutSeconds <= 0 {
		c.Registry.TimeoutSeconds = 30
	}
	if c.Storage.TimeoutSeconds <= 0 {
		c.Storage.TimeoutSeconds = 60
	}
	if c.Workflow.ErrorRetryIntervalSeconds <= 0 {
		c.Workflow.ErrorRetryIntervalSeconds = 15
	}
	return nil
}
