package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"eicrcore/internal/api"
	"eicrcore/internal/archive"
	"eicrcore/internal/core"
	"eicrcore/internal/events"
	"eicrcore/internal/observability/metrics"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) archiveConfig() archive.Config {
	s3 := a.cfg.Archive.S3
	return archive.Config{
		Driver: a.cfg.Archive.Driver,
		FSRoot: a.cfg.Archive.FSRoot,
		S3: archive.S3Config{
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			PathStyle:       s3.PathStyle,
			Prefix:          s3.Prefix,
		},
	}
}

func (a *app) publisher() (events.Publisher, error) {
	k := a.cfg.Events.Kafka
	if !k.Enabled() {
		return events.Noop{}, nil
	}
	return events.NewKafkaPublisher(events.KafkaConfig{Brokers: k.Brokers, Topic: k.Topic}, a.log.Named("events"))
}

func (a *app) serve(ctx context.Context) error {
	store, err := archive.Open(ctx, a.archiveConfig())
	if err != nil {
		return err
	}
	m, err := metrics.New(nil)
	if err != nil {
		return err
	}
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	svc, closeSvc, err := a.service(ctx,
		core.WithArchiver(archive.NewArchiver(store, archive.WithLogger(a.log.Named("archive")))),
		core.WithMetrics(m),
		core.WithObserver(m),
		core.WithObserver(pub),
		core.WithTracer(core.NewLogTracer(a.log)),
	)
	if err != nil {
		_ = pub.Close(context.Background())
		return err
	}
	ctrl := api.New(svc, api.WithLogger(a.log.Named("api")), api.WithMetricsHandler(m.Handler()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", zap.String("addr", a.cfg.HTTP.Addr))
		return ctrl.Start(a.cfg.HTTP.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout+5*time.Second)
		defer cancel()
		return errors.Join(
			ctrl.Shutdown(shutdownCtx, a.cfg.HTTP.ShutdownTimeout),
			closeSvc(shutdownCtx),
			pub.Close(shutdownCtx),
		)
	})
	return g.Wait()
}
