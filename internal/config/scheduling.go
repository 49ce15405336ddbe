package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SchedulingConfig tunes the scheduling sync behavior: how many drifted
// records a reconcile pass repairs and how long a manual-run holds its
// per-project lock.
type SchedulingConfig struct {
	ReconcileBatchSize int           `mapstructure:"reconcileBatchSize"`
	ManualRunLockTTL   time.Duration `mapstructure:"manualRunLockTTL"`
}

func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		ReconcileBatchSize: 50,
		ManualRunLockTTL:   30 * time.Second,
	}
}

type SchedulingConfigHolder struct {
	current atomic.Value // holds SchedulingConfig
}

// NewSchedulingConfigHolder loads scheduling.yml and watches it for changes.
func NewSchedulingConfigHolder() (*SchedulingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("scheduling")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/reposcribe")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REPOSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSchedulingConfig()
		v.SetDefault("scheduling.reconcileBatchSize", defaults.ReconcileBatchSize)
		v.SetDefault("scheduling.manualRunLockTTL", defaults.ManualRunLockTTL)
	}

	holder := &SchedulingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("reload scheduling config: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *SchedulingConfigHolder) reload(v *viper.Viper) error {
	var cfg SchedulingConfig
	if err := v.UnmarshalKey("scheduling", &cfg); err != nil {
		return err
	}
	if cfg.ReconcileBatchSize <= 0 {
		cfg.ReconcileBatchSize = DefaultSchedulingConfig().ReconcileBatchSize
	}
	if cfg.ManualRunLockTTL <= 0 {
		cfg.ManualRunLockTTL = DefaultSchedulingConfig().ManualRunLockTTL
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the most recently loaded scheduling configuration.
func (h *SchedulingConfigHolder) Current() SchedulingConfig {
	if h == nil {
		return DefaultSchedulingConfig()
	}
	if cfg, ok := h.current.Load().(SchedulingConfig); ok {
		return cfg
	}
	return DefaultSchedulingConfig()
}
