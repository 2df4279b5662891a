package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/gstbook/internal/invoice/format"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoicingConfig holds the tunables of invoice creation.
type InvoicingConfig struct {
	DefaultDueDays int             `mapstructure:"defaultDueDays"`
	IdempotencyTTL time.Duration   `mapstructure:"idempotencyTTL"`
	Numbering      NumberingConfig `mapstructure:"numbering"`
}

type NumberingConfig struct {
	Template    string `mapstructure:"template"`
	MaxAttempts int    `mapstructure:"maxAttempts"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		DefaultDueDays: 30,
		IdempotencyTTL: 24 * time.Hour,
		Numbering: NumberingConfig{
			Template:    format.DefaultInvoiceNumberTemplate,
			MaxAttempts: 3,
		},
	}
}

// InvoicingConfigProvider exposes the current invoicing config.
type InvoicingConfigProvider interface {
	Get() InvoicingConfig
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

var defaultInvoicingPaths = []string{
	"/var/lib/gstbook/config", // Volume-mounted config
	"/etc/gstbook",            // System config
	".",                       // Current directory (dev mode)
}

func NewInvoicingConfigHolder(log *zap.Logger) (*InvoicingConfigHolder, error) {
	return LoadInvoicingConfig(log, defaultInvoicingPaths...)
}

// LoadInvoicingConfig reads invoicing.yml from the first matching path and
// watches it for changes. Missing files fall back to defaults.
func LoadInvoicingConfig(log *zap.Logger, paths ...string) (*InvoicingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.invoicing")

	v := viper.New()
	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("GSTBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.defaultDueDays", defaults.DefaultDueDays)
	v.SetDefault("invoicing.idempotencyTTL", defaults.IdempotencyTTL)
	v.SetDefault("invoicing.numbering.template", defaults.Numbering.Template)
	v.SetDefault("invoicing.numbering.maxAttempts", defaults.Numbering.MaxAttempts)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeInvoicingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeInvoicingConfig(v)
			if err != nil {
				log.Warn("invalid invoicing config ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("invoicing config reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticInvoicingConfig returns a holder that never reloads.
func NewStaticInvoicingConfig(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

func decodeInvoicingConfig(v *viper.Viper) (InvoicingConfig, error) {
	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return InvoicingConfig{}, err
	}
	cfg.Numbering.Template = strings.TrimSpace(cfg.Numbering.Template)
	if err := validateInvoicingConfig(cfg); err != nil {
		return InvoicingConfig{}, err
	}
	return cfg, nil
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if cfg.DefaultDueDays < 0 {
		return errors.New("invoicing.defaultDueDays cannot be negative")
	}
	if cfg.Numbering.MaxAttempts < 1 {
		return errors.New("invoicing.numbering.maxAttempts must be at least 1")
	}
	if cfg.IdempotencyTTL < 0 {
		return errors.New("invoicing.idempotencyTTL cannot be negative")
	}
	return format.ValidateTemplate(cfg.Numbering.Template)
}
