package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gotdibbs/poinz/internal/client"
	"github.com/gotdibbs/poinz/internal/config"
	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/log"
	"github.com/gotdibbs/poinz/internal/prefs"
	"github.com/gotdibbs/poinz/internal/room"
	"github.com/gotdibbs/poinz/internal/transport/ws"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	serverURL  string
	logLevel   string
	room       string
	username   string
	password   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "poinz",
		Short:        "Terminal client for PoinZ planning poker rooms",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "websocket URL of the room server")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVarP(&opts.room, "room", "r", "", "room id to join")
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "username (defaults to stored preset)")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "room password, for protected rooms")
	_ = cmd.MarkFlagRequired("room")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)
	cobra.OnFinalize(stop)

	return cmd
}

func run(ctx context.Context, opts *options) error {
	logger := log.New(opts.logLevel)

	cfg, cfgPath, err := config.Load(logger, opts.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{ServerURL: opts.serverURL, LogLevel: opts.logLevel})
	logger = log.New(cfg.LogLevel)
	logger.Debug().Str("path", cfgPath).Msg("config loaded")

	store, err := prefs.OpenSQLite(cfg.PrefsPath)
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer store.Close()

	conn, err := ws.Dial(ctx, cfg.ServerURL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	session, err := client.New(conn, store, logger)
	if err != nil {
		return err
	}
	session.OnChange = newLogPrinter()

	if err := session.Join(ctx, opts.room, opts.username, opts.password); err != nil {
		return err
	}

	logger.Info().Str("server", cfg.ServerURL).Str("room", opts.room).Msg("session started")
	return session.Run(ctx)
}

// newLogPrinter echoes freshly appended action log entries to stdout. Not
// every state change appends an entry, so it tracks the last printed log id.
func newLogPrinter() func(st room.State, evt event.Event) {
	var lastID string
	return func(st room.State, evt event.Event) {
		if len(st.ActionLog) == 0 || st.ActionLog[0].LogID == lastID {
			return
		}
		entry := st.ActionLog[0]
		lastID = entry.LogID

		marker := " "
		if entry.IsError {
			marker = "!"
		}
		fmt.Printf("%s %s %s\n", entry.Tstamp, marker, entry.Message)

		if evt.Type == event.TypeConsensusAchieved && st.Applause {
			fmt.Println("        *** consensus ***")
		}
	}
}
