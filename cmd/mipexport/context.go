package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mipexport/internal/config"
	"mipexport/internal/toolexec"
)

type commandContext struct {
	configFlag *string
	// executor runs external tools; nil selects real processes.
	executor toolexec.Executor

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, executor toolexec.Executor) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		executor:   executor,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}
