package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig("testdata")
	assert.NoError(t, err)
	assert.Equal(t, Config{
		RulesPath:       "/etc/dockersweep/rules.conf",
		DryRun:          true,
		DockerHost:      "tcp://docker.internal:2375",
		EvalConcurrency: 8,
		RemoveTimeout:   30 * time.Second,
	}, c)
}
