package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"seller-users/internal/config"
	"seller-users/internal/database"
	apphttp "seller-users/internal/http"
	"seller-users/internal/repository/sqlite"
	"seller-users/internal/service"
	"seller-users/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hosted := cfg.IsHosted()

	var snapshot *storage.Snapshot
	if cfg.Snapshot.Bucket != "" {
		snapshotSvc, err := buildSnapshotStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup snapshot storage: %v", err)
		}
		snapshot = storage.NewSnapshot(snapshotSvc, cfg.Snapshot.Bucket, cfg.Snapshot.Key, cfg.Database.Path, logger)
	}

	manager := database.NewManager(cfg.Database.Path, cfg.Database.MaxOpenConns, logger)
	userRepo := sqlite.NewUserRepository(manager)
	userService := service.NewUserService(userRepo, logger)

	// Initialization runs lazily on the first request so cold starts do not
	// pay for the connection before traffic arrives. A failed attempt is
	// retried by the next request.
	gate := database.NewInitGate(func(ctx context.Context) error {
		if snapshot != nil {
			if err := snapshot.Restore(ctx); err != nil {
				logger.Warnf("snapshot restore: %v", err)
			}
		}
		if err := manager.Connect(ctx); err != nil {
			return err
		}
		return userRepo.Init(ctx)
	})

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := apphttp.NewHandler(userService, manager, apphttp.HandlerConfig{
		AppName:     cfg.App.Name,
		AppVersion:  cfg.App.Version,
		Environment: cfg.App.Environment,
		Debug:       cfg.App.Debug,
		Hosted:      hosted,
	}, logger)

	trustBearer := cfg.Auth.TrustBearer && !hosted
	router := apphttp.NewRouter(handler, gate, apphttp.DefaultAuthGateConfig(hosted, trustBearer), logger)

	if hosted {
		runHosted(ctx, cfg, router, snapshot, manager, logger)
		return
	}
	runLocal(ctx, cfg, router, snapshot, manager, logger)
}

func runHosted(ctx context.Context, cfg config.Config, router *gin.Engine, snapshot *storage.Snapshot, manager *database.Manager, logger *logrus.Logger) {
	// The runtime delivers SIGTERM shortly before the instance is reclaimed;
	// that window is used to persist the snapshot.
	go func() {
		<-ctx.Done()
		persistSnapshot(snapshot, manager, logger)
	}()

	switch cfg.Server.PayloadFormat {
	case "1.0":
		adapter := ginadapter.New(router)
		logger.Info("serving gateway events (payload format 1.0)")
		lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
	default:
		adapter := ginadapter.NewV2(router)
		logger.Info("serving gateway events (payload format 2.0)")
		lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
	}
}

func runLocal(ctx context.Context, cfg config.Config, router *gin.Engine, snapshot *storage.Snapshot, manager *database.Manager, logger *logrus.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	persistSnapshot(snapshot, manager, logger)

	logger.Info("bye")
}

func persistSnapshot(snapshot *storage.Snapshot, manager *database.Manager, logger *logrus.Logger) {
	if err := manager.Close(); err != nil {
		logger.Warnf("close database: %v", err)
	}
	if snapshot == nil {
		return
	}
	persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := snapshot.Persist(persistCtx); err != nil {
		logger.Warnf("snapshot persist: %v", err)
	}
}

func buildSnapshotStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Snapshot.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Snapshot.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Snapshot.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using snapshot bucket %s (region %s)", cfg.Snapshot.Bucket, cfg.Snapshot.Region)
	return storage.NewS3Service(client), nil
}
