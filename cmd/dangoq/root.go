package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/actions"
	"github.com/blockberries/dango/appconfig"
	"github.com/blockberries/dango/config"
	dangogrpc "github.com/blockberries/dango/grpc"
	"github.com/blockberries/dango/telemetry"
	"github.com/blockberries/dango/types"
)

type rootFlags struct {
	configPath string
	node       string
	height     uint64
	logLevel   string
}

// session is what every subcommand runs against.
type session struct {
	cfg     *config.Config
	height  types.Height
	actions *actions.Actions
	closer  func() error
}

// dial is replaced in tests.
var dial = func(ctx context.Context, cfg *config.Config) (dango.Transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout())
	defer cancel()
	return dangogrpc.Dial(dialCtx, cfg.Node.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var s *session

	root := &cobra.Command{
		Use:           "dangoq",
		Short:         "Query a dango node",
		Long:          `Run typed queries against a dango node and print the answers as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			s, err = openSession(cmd, flags)
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if s == nil || s.closer == nil {
				return nil
			}
			return s.closer()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.node, "node", "", "node gRPC address (overrides config)")
	pf.Uint64Var(&flags.height, "height", 0, "block height to query (0 = latest)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")

	get := func() *session { return s }
	root.AddCommand(
		newAppConfigCmd(get),
		newInfoCmd(get),
		newBalanceCmd(get),
		newTokenAdminCmd(get),
		newTokenAdminsCmd(get),
		newNextAccountAddressCmd(get),
		newVotesCmd(get),
		newSmartCmd(get),
	)
	return root
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if flags.node != "" {
		cfg.Node.GRPCAddr = flags.node
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	transport, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func() error{func() error { return closeTransport(transport) }}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m, err := telemetry.NewMetrics(reg)
		if err != nil {
			_ = closeTransport(transport)
			return nil, err
		}
		transport = telemetry.NewMeteredTransport(transport, m)
		if cfg.Metrics.Addr != "" {
			stop, err := serveMetrics(cfg.Metrics.Addr, reg)
			if err != nil {
				_ = closeTransport(transport)
				return nil, err
			}
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
			closers = append(closers, stop)
		}
	}

	cache, err := cfg.NewCache()
	if err != nil {
		_ = closeTransport(transport)
		return nil, err
	}
	if c, ok := cache.(io.Closer); ok {
		closers = append(closers, c.Close)
	}
	resolver := appconfig.NewResolver(appconfig.WithCache(cache))
	client := dango.NewClient(transport, dango.ChainInfo{ID: cfg.Node.ChainID}, dango.NoSigner{})
	logger.Debug().Stringer("client", client).Str("node", cfg.Node.GRPCAddr).Msg("session open")

	return &session{
		cfg:     cfg,
		height:  flags.height,
		actions: actions.New(client, resolver),
		closer: func() error {
			var errs []error
			for _, c := range closers {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func closeTransport(t dango.Transport) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) (func() error, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	srv := &http.Server{
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
	return srv.Close, nil
}

// run bounds fn by the configured query timeout and prints its result.
func run[T any](cmd *cobra.Command, s *session, fn func(ctx context.Context, a *actions.Actions) (T, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.QueryTimeout())
	defer cancel()

	out, err := fn(ctx, s.actions)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
