package tracker

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultContact      = "contact@example.com"
)

// ChannelConfig identifies one station channel in the playlist API.
type ChannelConfig struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type Config struct {
	// APIURL is the now-playing endpoint template; {chan} is replaced with
	// the channel id.
	APIURL string `yaml:"api-url,omitempty"`

	// Contact goes into the User-Agent so stream operators can reach us.
	Contact string `yaml:"contact,omitempty"`

	// Database is the MySQL DSN for the playlist history store.
	Database string `yaml:"database,omitempty"`

	// PollInterval is the wait between polls when the API gives no hint
	// about the remaining track time.
	PollInterval time.Duration `yaml:"poll-interval,omitempty"`

	Channels []ChannelConfig `yaml:"channels,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.APIURL, util.PrefixConfig(prefix, "api-url"), "",
		"Now-playing API URL template; {chan} is replaced with the channel id.")
	f.StringVar(&cfg.Contact, util.PrefixConfig(prefix, "contact"), defaultContact,
		"Contact address included in the User-Agent header.")
	f.StringVar(&cfg.Database, util.PrefixConfig(prefix, "database"), "",
		"MySQL DSN for the playlist history database.")
	f.DurationVar(&cfg.PollInterval, util.PrefixConfig(prefix, "poll-interval"), defaultPollInterval,
		"Base wait between now-playing polls when the API reports no track time.")
}

// Validate checks the parts of the config that cannot be defaulted.
func (cfg *Config) Validate() error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api-url is required")
	}
	if !strings.Contains(cfg.APIURL, "{chan}") {
		return fmt.Errorf("api-url must contain a {chan} placeholder")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database DSN is required")
	}
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("no channels configured")
	}
	return nil
}

// channelURL expands the template for one channel.
func (cfg *Config) channelURL(id int) string {
	return strings.ReplaceAll(cfg.APIURL, "{chan}", fmt.Sprint(id))
}
