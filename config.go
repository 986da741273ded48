package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool

	// play-only
	server  string
	retries int
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TYPEFAST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "typefast",
		Short:         "A team-based word-typing race, served over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			return ServeGame(cmd.Context(), cfg)
		},
	}

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Run the interactive console client.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			suppressLogging()
			return runClient(cmd.Context(), cfg)
		},
	}

	sfs := serveCmd.Flags()
	sfs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TYPEFAST_BIND)")
	sfs.DurationVar(&cfg.playerTimeout, "player-timeout", 30*time.Second, "grace period before a disconnected player forfeits (env: TYPEFAST_PLAYER_TIMEOUT)")
	sfs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TYPEFAST_PORT)")
	sfs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TYPEFAST_PREFIX)")
	sfs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TYPEFAST_PROFILE)")
	sfs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle sessions are ended (env: TYPEFAST_SESSION_TIMEOUT)")
	sfs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TYPEFAST_TLS_CERT)")
	sfs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TYPEFAST_TLS_KEY)")

	pfs := playCmd.Flags()
	pfs.StringVarP(&cfg.server, "server", "s", "ws://localhost:8080/ws", "websocket URL of the game server (env: TYPEFAST_SERVER)")
	pfs.IntVar(&cfg.retries, "retries", 5, "consecutive reconnect attempts before giving up (env: TYPEFAST_RETRIES)")

	cmd.PersistentFlags().BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TYPEFAST_VERBOSE)")

	for _, fs := range []*pflag.FlagSet{cmd.PersistentFlags(), serveCmd.Flags(), playCmd.Flags()} {
		fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
			return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
		})

		fs.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(f.Name, f)
			_ = v.BindEnv(f.Name)
			if !f.Changed && v.IsSet(f.Name) {
				_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
			}
		})
	}

	cmd.AddCommand(serveCmd, playCmd)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("typefast v{{.Version}}\n")

	return cmd
}
