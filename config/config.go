// Package config loads the runtime configuration options enumerated in
// spec.md §6, grounded on the teacher's utils.Config (a flat struct of
// tunables with a DefaultConfig constructor) and on
// webitel-im-delivery-service's spf13/viper + fsnotify stack for
// loading a YAML file and hot-reloading a subset of fields.
package config

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config enumerates every runtime configuration option the core
// recognizes (spec.md §6) plus the cluster-layer tunables SPEC_FULL.md
// adds.
type Config struct {
	// DeadLetterRequestLogging logs requests routed to dead-letter.
	DeadLetterRequestLogging bool `mapstructure:"dead_letter_request_logging"`

	// DeveloperSupervisionLogging turns on verbose escalation logging.
	DeveloperSupervisionLogging bool `mapstructure:"developer_supervision_logging"`

	// BlockedMemberDuration is how long an unresponsive cluster member
	// stays on the block list.
	BlockedMemberDuration time.Duration `mapstructure:"blocked_member_duration"`

	// ActorRequestTimeout is the default ask deadline used by cluster
	// requests that don't specify their own.
	ActorRequestTimeout time.Duration `mapstructure:"actor_request_timeout"`

	// Throughput is the number of user messages drained per mailbox
	// dispatch run. The ActorSystem does not apply it: each actor's
	// mailbox takes its throughput from its Props, and NewProps builds
	// the default mailbox with a fixed 300.
	Throughput int `mapstructure:"throughput"`

	// ExitOnShutdown process-exits once the cluster finishes shutting
	// down.
	ExitOnShutdown bool `mapstructure:"exit_on_shutdown"`

	// ClusterPidCacheSize bounds the cluster identity pid cache.
	ClusterPidCacheSize int `mapstructure:"cluster_pid_cache_size"`

	// ClusterMaxRequestAttempts bounds cluster.Request retries within
	// its deadline.
	ClusterMaxRequestAttempts int `mapstructure:"cluster_max_request_attempts"`

	// ClusterActivationTimeout bounds how long an owner waits for a
	// kind's Activator to produce a PID.
	ClusterActivationTimeout time.Duration `mapstructure:"cluster_activation_timeout"`
}

// Default returns the option set new ActorSystems/Clusters use unless
// overridden, mirroring the teacher's DefaultConfig().
func Default() Config {
	return Config{
		DeadLetterRequestLogging:    false,
		DeveloperSupervisionLogging: false,
		BlockedMemberDuration:       time.Hour,
		ActorRequestTimeout:         5 * time.Second,
		Throughput:                  300,
		ExitOnShutdown:              false,
		ClusterPidCacheSize:         10_000,
		ClusterMaxRequestAttempts:   3,
		ClusterActivationTimeout:    5 * time.Second,
	}
}

// Load reads a YAML config file at path over the defaults, tolerating
// a missing file (defaults are used as-is).
func Load(path string) (Config, *viper.Viper, error) {
	cfg := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	seedDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return cfg, v, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, v, err
	}
	return cfg, v, nil
}

func seedDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("dead_letter_request_logging", cfg.DeadLetterRequestLogging)
	v.SetDefault("developer_supervision_logging", cfg.DeveloperSupervisionLogging)
	v.SetDefault("blocked_member_duration", cfg.BlockedMemberDuration)
	v.SetDefault("actor_request_timeout", cfg.ActorRequestTimeout)
	v.SetDefault("throughput", cfg.Throughput)
	v.SetDefault("exit_on_shutdown", cfg.ExitOnShutdown)
	v.SetDefault("cluster_pid_cache_size", cfg.ClusterPidCacheSize)
	v.SetDefault("cluster_max_request_attempts", cfg.ClusterMaxRequestAttempts)
	v.SetDefault("cluster_activation_timeout", cfg.ClusterActivationTimeout)
}

// Watch invokes onChange with the freshly parsed Config each time the
// backing file changes; it updates nothing else itself. A Cluster
// copies its tunables when it is built and has no setter for them, so
// a running Cluster keeps the values it started with.
func Watch(v *viper.Viper, onChange func(Config)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err == nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
}
