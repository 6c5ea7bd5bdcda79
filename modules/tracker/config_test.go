package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerConfigValidate(t *testing.T) {
	valid := Config{
		APIURL:   "http://example.com/playing?chan={chan}",
		Database: "user:pass@tcp(localhost:3306)/radio",
		Channels: []ChannelConfig{{ID: 1, Name: "Main"}},
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing api url", mutate: func(c *Config) { c.APIURL = "" }},
		{name: "no chan placeholder", mutate: func(c *Config) { c.APIURL = "http://example.com/playing" }},
		{name: "missing database", mutate: func(c *Config) { c.Database = "" }},
		{name: "no channels", mutate: func(c *Config) { c.Channels = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestChannelURL(t *testing.T) {
	cfg := Config{APIURL: "http://example.com/playing?chan={chan}"}
	assert.Equal(t, "http://example.com/playing?chan=7", cfg.channelURL(7))
}
