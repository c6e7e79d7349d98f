package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"opencrew/internal/channel"
	"opencrew/internal/config"
	"opencrew/internal/engine"
	"opencrew/internal/security"
	"opencrew/internal/tool"
)

func loadConfig(configPath string) (*config.Config, error) {
	var loader *config.Loader
	if configPath != "" {
		loader = config.NewLoaderAt(configPath)
	} else {
		var err error
		loader, err = config.NewLoader()
		if err != nil {
			return nil, err
		}
	}
	return loader.Load()
}

func buildEngine(configPath string) (*engine.Engine, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	keys, err := security.NewKeyStore(nil)
	if err != nil {
		log.Warn().Err(err).Msg("keystore unavailable, API keys must be set in config or env")
	}
	return engine.New(cfg, keys)
}

func newShellCmd(configPath *string) *cobra.Command {
	var telegram bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive crew shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			channels := []channel.Channel{channel.NewConsole()}
			if telegram {
				cfg, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				if cfg.Channels.Telegram == nil || cfg.Channels.Telegram.Token == "" {
					return fmt.Errorf("telegram channel requested but no token configured")
				}
				channels = append(channels, channel.NewTelegram(*cfg.Channels.Telegram))
			}

			mgr := channel.NewManager(e, channels...)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := mgr.Start(ctx); err != nil {
				return err
			}
			fmt.Println("opencrew ready. Type 'help' for commands.")

			select {
			case <-ctx.Done():
				return mgr.Stop(context.Background())
			case <-mgr.Done():
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&telegram, "telegram", false, "also serve the configured Telegram bot")
	return cmd
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <request...>",
		Short: "Run one request through the crew and print the deliverable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := e.Run(ctx, strings.Join(args, " "))
			if !res.Success {
				return fmt.Errorf("crew run failed: %s", res.ErrorMessage)
			}
			fmt.Println(res.FinalOutput)
			if avg := res.Ratings.Average(); avg > 0 {
				fmt.Printf("\nAverage quality rating: %.1f/10\n", avg)
			}
			return nil
		},
	}
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools agents can call",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := tool.NewRegistry()
			for _, t := range []tool.Tool{
				tool.NewReadFileTool(),
				tool.NewWriteFileTool(),
				tool.NewListDirectoryTool(),
				tool.NewFetchDocsTool(),
			} {
				if err := reg.Register(t); err != nil {
					return err
				}
			}
			for _, def := range reg.Definitions() {
				fmt.Println(def.PromptBlock())
			}
			return nil
		},
	}
}

func newSessionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved crew sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			paths, err := engine.ListSessions(cfg.DataDir())
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("No saved sessions.")
				return nil
			}
			for _, path := range paths {
				rec, err := engine.LoadSession(path)
				if err != nil {
					fmt.Printf("%s (unreadable: %v)\n", path, err)
					continue
				}
				fmt.Printf("%s  %s  %q\n",
					rec.CreatedAt.Format("2006-01-02 15:04"), rec.SessionID, clipRequest(rec.Request))
			}
			return nil
		},
	}
}

func clipRequest(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
