package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vaultmeet/vaultmeet/internal/config"
	"github.com/vaultmeet/vaultmeet/internal/db"
	"github.com/vaultmeet/vaultmeet/internal/kafka"
	"github.com/vaultmeet/vaultmeet/internal/logger"
	"github.com/vaultmeet/vaultmeet/internal/mailer"
	"github.com/vaultmeet/vaultmeet/internal/metrics"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/service/review"
	"github.com/vaultmeet/vaultmeet/internal/worker"
	"go.uber.org/zap"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Run notifier worker (decision emails)",
	RunE:  runNotifier,
}

func runNotifier(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	dbx, err := db.NewMySQL(cfg.MySQL)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	chDB, err := db.NewClickHouse(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer func() { _ = chDB.Close() }()

	notificationsRepo := repository.NewNotificationsRepository(dbx)
	decisionsRepo := repository.NewCHDecisionsRepository(chDB)

	disp, err := mailer.NewDispatcherFromConfig(cfg.Mail)
	if err != nil {
		return fmt.Errorf("mail providers: %w", err)
	}

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "vaultmeet-notifier"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          review.EmailKafkaTopic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewNotifier(dbx, consumer, notificationsRepo, decisionsRepo, disp)

	// tune knobs
	if cfg.Notifier.WorkerCount > 0 {
		w.Workers = cfg.Notifier.WorkerCount
	}
	if cfg.Notifier.BatchSize > 0 {
		w.BatchSize = cfg.Notifier.BatchSize
	}
	if cfg.Notifier.BatchWait > 0 {
		w.BatchWait = cfg.Notifier.BatchWait
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Info("notifier started",
		zap.String("topic", review.EmailKafkaTopic),
		zap.String("group", groupID),
		zap.Int("workers", w.Workers),
		zap.Int("batch_size", w.BatchSize),
		zap.Duration("batch_wait", w.BatchWait),
	)

	return w.Run(ctx)
}
