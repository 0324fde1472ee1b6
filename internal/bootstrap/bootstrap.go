package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"

	"fun-bot/internal/config"
	"fun-bot/internal/dialog"
	"fun-bot/internal/integrations/paramstore"
	"fun-bot/internal/repository"
	"fun-bot/internal/state"
	"fun-bot/internal/usecase"
)

// Runtime holds the wired services and the resources to release on shutdown.
type Runtime struct {
	Turns *usecase.TurnService
	// Secret is nil when no PARAM_PREFIX is configured.
	Secret *paramstore.SecretResolver

	closers []func() error
}

// Close releases backend connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build wires the state backend, dialog engine and turn service from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	rt := &Runtime{}
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	var backend state.Backend
	switch cfg.StateBackend {
	case config.BackendDynamoDB:
		ac, err := loadAWS()
		if err != nil {
			return nil, err
		}
		client, err := repository.New(awsdynamodb.NewFromConfig(ac), cfg.StateTable, repository.WithTTL(cfg.StateTTL))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: dynamodb state: %w", err)
		}
		backend = client
	case config.BackendRedis:
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		rt.closers = append(rt.closers, rc.Close)
		rs, err := repository.NewRedisStore(rc, cfg.StateTTL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis state: %w", err)
		}
		backend = rs
	case config.BackendMemory:
		logger.Warn("using in-memory state; conversations are lost on restart")
		backend = repository.NewMemoryStore()
	default:
		return nil, fmt.Errorf("bootstrap: unknown state backend %q", cfg.StateBackend)
	}

	store, err := state.New(backend)
	if err != nil {
		return nil, err
	}
	set, err := usecase.NewDialogSet()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: dialogs: %w", err)
	}
	engine, err := dialog.NewEngine(set, logger)
	if err != nil {
		return nil, err
	}
	rt.Turns, err = usecase.NewTurnService(store, engine, logger)
	if err != nil {
		return nil, err
	}

	if cfg.ParamPrefix != "" {
		ac, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(ac))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: ssm: %w", err)
		}
		rt.Secret, err = paramstore.NewSecretResolver(ps, cfg.ParamPrefix)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: channel secret: %w", err)
		}
	}

	logger.Info("runtime ready", "state_backend", cfg.StateBackend, "channel_secret", rt.Secret != nil)
	return rt, nil
}
