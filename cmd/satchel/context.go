package main

import (
	"sync"

	"satchel/internal/config"
	"satchel/internal/store"
)

// commandContext lazily resolves the configuration and store shared by the
// subcommands.
type commandContext struct {
	configFlag *string

	once sync.Once
	cfg  *config.Config
	path string
	err  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		c.cfg, c.path, _, c.err = config.Load(*c.configFlag)
	})
	return c.cfg, c.err
}

func (c *commandContext) configPath() (string, error) {
	if _, err := c.ensureConfig(); err != nil {
		return "", err
	}
	return c.path, nil
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg)
}
