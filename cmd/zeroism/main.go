package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chris/zeroism/config"
	"github.com/chris/zeroism/internal/console"
	"github.com/chris/zeroism/internal/discord"
	"github.com/chris/zeroism/internal/scheduler"
	"github.com/chris/zeroism/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zeroism",
		Short:         "Daily health check-ins over chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newConsoleCmd(), newWeeklyCmd(), newServiceCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot: Discord when a token is set, otherwise the console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if cfg.DiscordToken == "" {
				return runConsole(cmd.Context(), cfg)
			}
			return runDiscord(cmd.Context(), cfg)
		},
	}
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Chat over stdin and stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), loadConfig())
		},
	}
}

func newWeeklyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Print this week's review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd.Context(), loadConfig())
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Println(a.router.WeeklyReview(cmd.Context()))
			return nil
		},
	}
}

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the systemd user service",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install and start the service",
			RunE:  func(*cobra.Command, []string) error { return service.Install() },
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Stop and remove the service",
			RunE:  func(*cobra.Command, []string) error { return service.Uninstall() },
		},
		&cobra.Command{
			Use:   "unit",
			Short: "Print the unit file",
			RunE: func(*cobra.Command, []string) error {
				unit, err := service.Unit()
				if err != nil {
					return err
				}
				fmt.Print(unit)
				return nil
			},
		},
	)
	return cmd
}

func loadConfig() *config.Config {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg
}

func runDiscord(ctx context.Context, cfg *config.Config) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := discord.NewBot(cfg.DiscordToken, cfg.DiscordChannelID, a.router)
	if err != nil {
		return err
	}
	defer b.Close()

	sched, err := a.scheduler(cfg.DiscordChannelID, b.Send)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.Info("bot is running, press Ctrl+C to exit")
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func runConsole(ctx context.Context, cfg *config.Config) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	c := console.New(a.router, os.Stdout, interactive)

	var sched *scheduler.Scheduler
	if interactive {
		if sched, err = a.scheduler(console.ConversationID, c.Send); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Run(ctx, os.Stdin)
}
