package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alicebob/miniredis/v2"
	env "github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/evangelho"
	"github.com/MrEthical07/evangelho/provider/redisprovider"
	"github.com/MrEthical07/evangelho/reflection"
)

var (
	redisAddr   string
	tokenSecret string
	clientIP    string
	verbose     bool
	auditLog    bool

	appCtx *app
)

// app holds what every subcommand shares. Each session gets its own
// provider and controller; the Redis client is shared.
type app struct {
	redis       redis.UniversalClient
	cfg         evangelho.Config
	providerCfg redisprovider.Config
	logger      *slog.Logger
	cleanup     func()
}

type session struct {
	provider   *redisprovider.Provider
	controller *evangelho.Controller
	answers    *reflection.Service
}

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	root := &cobra.Command{
		Use:           "evangelho",
		Short:         "Sign in, create accounts and record reflections from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.cleanup()
			}
		},
	}

	root.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	root.PersistentFlags().StringVar(&tokenSecret, "token-secret", "", "ID token signing secret (default EVANGELHO_REDIS_TOKEN_SECRET)")
	root.PersistentFlags().StringVar(&clientIP, "client-ip", "", "client IP reported to the sign-in throttle")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&auditLog, "audit", false, "write audit events to stderr as JSON lines")

	root.AddCommand(signupCmd(), loginCmd(), answerCmd(), historyCmd(), loadtestCmd())
	return root.Execute()
}

func newApp() (*app, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := evangelho.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if auditLog {
		cfg.Audit.Enabled = true
	}

	pcfg := redisprovider.DefaultConfig()
	if err := env.ParseWithOptions(&pcfg, env.Options{Prefix: evangelho.EnvPrefix + "REDIS_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if tokenSecret != "" {
		pcfg.Token.Secret = tokenSecret
	}
	if pcfg.Token.Secret == "" {
		return nil, errors.New("a token secret is required: set --token-secret or " + evangelho.EnvPrefix + "REDIS_TOKEN_SECRET")
	}

	addr := redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	a := &app{cfg: cfg, providerCfg: pcfg, logger: logger}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		a.redis = client
		a.cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		logger.Info("using miniredis; data is lost on exit", "addr", mr.Addr())
	} else {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		a.redis = client
		a.cleanup = func() { _ = client.Close() }
		logger.Debug("using redis", "addr", addr)
	}
	return a, nil
}

func (a *app) newSession() (*session, error) {
	p, err := redisprovider.New(a.redis, a.providerCfg)
	if err != nil {
		return nil, err
	}

	b := evangelho.New().
		WithConfig(a.cfg).
		WithIdentityProvider(p).
		WithLogger(a.logger)
	if a.cfg.Audit.Enabled {
		b = b.WithAuditSink(evangelho.NewJSONWriterSink(os.Stderr))
	}
	c, err := b.Build()
	if err != nil {
		return nil, err
	}

	answers := reflection.NewService(
		reflection.NewRedisStore(a.redis, a.providerCfg.Prefix),
		reflection.WithAuditor(c),
	)
	return &session{provider: p, controller: c, answers: answers}, nil
}

func (s *session) close() {
	s.controller.Close()
}

// opContext carries --client-ip into provider calls.
func opContext(ctx context.Context) context.Context {
	if clientIP == "" {
		return ctx
	}
	return evangelho.WithClientIP(ctx, clientIP)
}

// signIn runs Login and reports the resulting state.
func (s *session) signIn(ctx context.Context, email, pw string) error {
	s.controller.Login(opContext(ctx), email, pw)
	s.controller.Wait()
	st := s.controller.State()
	if !st.Authenticated {
		return fmt.Errorf("login failed: %s", st.ErrorMessage)
	}
	return nil
}

func printState(cmd *cobra.Command, st evangelho.SessionState) {
	fmt.Fprintf(cmd.OutOrStdout(), "authenticated=%t user=%s", st.Authenticated, st.UserID)
	if st.ErrorMessage != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " error=%q", st.ErrorMessage)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}
