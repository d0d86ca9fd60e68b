package notify

import (
	"context"
	"fmt"
	"log/slog"

	"mesrof/internal/amqp"
	"mesrof/internal/config"
)

// Backend selects the notifier implementation.
type Backend string

const (
	LogBackend  Backend = config.NotifyLog
	AMQPBackend Backend = config.NotifyAMQP
)

func (b Backend) String() string {
	return string(b)
}

func (b Backend) IsValid() bool {
	switch b {
	case LogBackend, AMQPBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a notifier.
type Config struct {
	Backend      Backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig extracts the notifier settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backend := Backend(appConfig.NotifyBackend)
	if !backend.IsValid() {
		return Config{}, fmt.Errorf("invalid notify backend in config: %s", appConfig.NotifyBackend)
	}
	return Config{
		Backend:      backend,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Dialer opens an AMQP publisher. Tests replace it.
type Dialer func(url, exchange, queue string) (Publisher, error)

func dialAMQP(url, exchange, queue string) (Publisher, error) {
	c, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Factory builds notifiers.
type Factory struct {
	logger *slog.Logger
	dial   Dialer
}

func NewFactory(logger *slog.Logger, dial Dialer) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if dial == nil {
		dial = dialAMQP
	}
	return &Factory{logger: logger, dial: dial}
}

// Create returns the configured notifier. When the broker cannot be reached
// the log notifier is returned instead and a warning is logged.
func (f *Factory) Create(ctx context.Context, cfg Config) (Notifier, error) {
	switch cfg.Backend {
	case LogBackend:
		f.logger.InfoContext(ctx, "Initialized log notifier")
		return NewLogNotifier(f.logger), nil
	case AMQPBackend:
		p, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, falling back to log notifier", "error", err)
			return NewLogNotifier(f.logger), nil
		}
		f.logger.InfoContext(ctx, "Initialized AMQP notifier",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return NewAMQPNotifier(p), nil
	default:
		return nil, fmt.Errorf("unsupported notify backend: %s", cfg.Backend)
	}
}

// New builds the notifier described by the application config.
func New(ctx context.Context, appConfig *config.Config, logger *slog.Logger) (Notifier, error) {
	cfg, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return NewFactory(logger, nil).Create(ctx, cfg)
}
