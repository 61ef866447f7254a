package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"sagemaker-client/internal/config"
	"sagemaker-client/internal/history"
	"sagemaker-client/internal/telemetry"
	"sagemaker-client/internal/watcher"
	"sagemaker-client/internal/watchqueue"
	"sagemaker-client/smclient"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	st, err := history.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer st.Close()

	q := watchqueue.New(cfg)

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	client := smclient.New(awsCfg)

	if cfg.WatchFile != "" {
		if err := registerFromFile(ctx, cfg, st, q); err != nil {
			log.Fatalf("register watch file: %v", err)
		}
	}

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	w := watcher.New(cfg, q, st, client, log.Default())
	log.Printf("jobwatch started with poll_interval=%s lease=%s", cfg.PollInterval, cfg.LeaseTimeout)
	if err := w.Run(ctx); err != nil {
		log.Printf("jobwatch stopped: %v", err)
	}
}

// registerFromFile seeds watches listed in the YAML watch file. Entries for
// jobs already being watched are left alone.
func registerFromFile(ctx context.Context, cfg config.Config, st *history.Store, q *watchqueue.Queue) error {
	entries, err := config.LoadWatchFile(cfg.WatchFile)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := smclient.ParseJobKind(e.Kind); err != nil {
			return err
		}
		_, existing, err := st.CreateWatch(ctx, e.JobName, e.Kind, e.Tenant, time.Now())
		if err != nil {
			return err
		}
		if existing {
			continue
		}
		if err := q.Register(ctx, e.JobName, e.Kind, time.Now()); err != nil {
			return err
		}
		telemetry.WatchesRegistered.Inc()
		log.Printf("registered watch for %s (%s)", e.JobName, e.Kind)
	}
	return nil
}

func loadAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSEndpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           cfg.AWSEndpoint,
				SigningRegion: cfg.AWSRegion,
			}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
