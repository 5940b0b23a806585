package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/studyplan/internal/profile"
	"github.com/hrygo/studyplan/internal/version"
	"github.com/hrygo/studyplan/server"
	"github.com/hrygo/studyplan/store"
	"github.com/hrygo/studyplan/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "studyplan",
		Short: "Exam study schedules with spaced reviews.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the sync runner.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetCurrentVersion(viper.GetString("mode")))
		},
	}
)

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:              viper.GetString("mode"),
		Addr:              viper.GetString("addr"),
		Port:              viper.GetInt("port"),
		Data:              viper.GetString("data"),
		Driver:            viper.GetString("driver"),
		DSN:               viper.GetString("dsn"),
		InstanceURL:       viper.GetString("instance-url"),
		Timezone:          viper.GetString("timezone"),
		AdaptiveIntervals: viper.GetBool("adaptive-intervals"),
		SyncRemoteURL:     viper.GetString("sync-remote-url"),
		SyncInterval:      viper.GetDuration("sync-interval"),
		RedisAddr:         viper.GetString("redis-addr"),
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func runServe(parent context.Context) error {
	instanceProfile, err := loadProfile()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		slog.Error("failed to create db driver", "error", err)
		return err
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		slog.Error("failed to migrate", "error", err)
		return err
	}

	s, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		return err
	}

	printGreetings(instanceProfile)
	return s.Run(ctx)
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("sync-interval", profile.DefaultSyncInterval)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name (aka. DSN)")
	flags.String("instance-url", "", "the url of your studyplan instance, used in feed links")
	flags.String("timezone", "UTC", "IANA timezone that decides what today is")
	flags.Bool("adaptive-intervals", false, "scale review intervals by subject performance")
	flags.String("sync-remote-url", "", "url plans are pushed to, sync is disabled when empty")
	flags.Duration("sync-interval", profile.DefaultSyncInterval, "how often queued plans are pushed")
	flags.String("redis-addr", "", "redis address of the shared plan cache")

	for _, name := range []string{
		"mode", "addr", "port", "data", "driver", "dsn", "instance-url",
		"timezone", "adaptive-intervals", "sync-remote-url", "sync-interval", "redis-addr",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("studyplan")
	viper.AutomaticEnv()
	if err := viper.BindEnv("instance-url", "STUDYPLAN_INSTANCE_URL"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd, generateCmd, versionCmd)
}

func printGreetings(p *profile.Profile) {
	slog.Info("studyplan",
		"version", p.Version,
		"mode", p.Mode,
		"driver", p.Driver,
		"data", p.Data,
		"timezone", p.Timezone,
		"sync", p.IsSyncEnabled(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
