package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
	kafkainfra "github.com/arklim/campus-records/internal/infra/kafka"
	"github.com/arklim/campus-records/internal/infra/logger"
	redisinfra "github.com/arklim/campus-records/internal/infra/redis"
	"github.com/arklim/campus-records/internal/infra/security"
	"github.com/arklim/campus-records/internal/infra/telemetry"
	redisrepo "github.com/arklim/campus-records/internal/repository/redis"
	transportgrpc "github.com/arklim/campus-records/internal/transport/grpc"
	grpcinterceptors "github.com/arklim/campus-records/internal/transport/grpc/interceptors"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/transport/http/routes"
	"github.com/arklim/campus-records/internal/usecase"
)

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	grpcServer *transportgrpc.Server
	closers    []func(context.Context) error
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	if err := a.build(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *Application) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *Application) build(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		a.onClose(tp.Shutdown)
	}

	store, closeStore, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error {
		closeStore()
		return nil
	})

	hasher, err := security.NewArgon2Hasher(cfg.Argon2.Params())
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}

	tokens, err := security.NewSessionTokenManager(cfg.Auth.SessionSecret, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("init session tokens: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	a.onClose(func(context.Context) error { return redisClient.Close() })

	sessions := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix, 2*cfg.RateLimit.WindowDuration)

	events := a.eventPublisher()

	policyMetrics, err := telemetry.NewPolicyMetrics(telemetry.PolicyMetricsOptions{})
	if err != nil {
		return fmt.Errorf("init policy metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	recordOpts := []usecase.RecordOption{
		usecase.WithEventPublisher(events),
		usecase.WithMutationMetrics(policyMetrics),
	}
	if cfg.Auth.EnforceStrength {
		recordOpts = append(recordOpts, usecase.WithPasswordPolicy(security.NewPasswordPolicy()))
	}

	policy := usecase.NewAccessPolicy(store).WithMetrics(policyMetrics)
	students := usecase.NewStudentService(store, policy, hasher, log, recordOpts...)
	teachers := usecase.NewTeacherService(store, policy, hasher, log, recordOpts...)
	authService := usecase.NewAuthService(cfg.Auth, store.Principals(), sessions, hasher, tokens, log).
		WithRateLimiter(rateLimitStore, cfg.RateLimit)

	report, err := usecase.NewBootstrapService(store, hasher, log).Seed(ctx, cfg.Bootstrap)
	if err != nil {
		return fmt.Errorf("bootstrap accounts: %w", err)
	}
	if len(report.Created) > 0 {
		log.Info("bootstrap complete", zap.Strings("created", report.Created), zap.Strings("skipped", report.Skipped))
	}

	checkers := []routes.Checker{storeChecker{store: store}, redisClient}

	if cfg.GRPC.Enabled {
		grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{})
		if err != nil {
			return fmt.Errorf("init grpc metrics: %w", err)
		}
		grpcCheckers := lo.Map(checkers, func(c routes.Checker, _ int) transportgrpc.Checker {
			return c
		})
		a.grpcServer = transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Logger:   log,
			Metrics:  grpcMetrics,
			Tracing:  &grpcinterceptors.TracingOptions{},
			Checkers: grpcCheckers,
		})
	}

	a.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Metrics:     httpMetrics,
		Checkers:    checkers,
		Services: routes.ServiceSet{
			Auth:        authService,
			Students:    students,
			Teachers:    teachers,
			Courses:     usecase.NewCourseService(store, policy, log, recordOpts...),
			Departments: usecase.NewDepartmentService(store, policy, log, recordOpts...),
			Profiles:    usecase.NewProfileService(store, students, teachers),
		},
	})

	return nil
}

func (a *Application) eventPublisher() port.RecordEventPublisher {
	if !a.cfg.Kafka.Enabled || len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka disabled, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.onClose(func(context.Context) error { return producer.Close() })

	a.logger.Info("kafka event publisher initialized", zap.String("topic", a.cfg.Kafka.RecordTopic))
	return kafkainfra.NewEventPublisher(producer, a.cfg.Kafka.RecordTopic, a.cfg.App, a.logger)
}

// storeChecker adapts the record store to the readiness probe.
type storeChecker struct {
	store port.Store
}

func (s storeChecker) Name() string                    { return "store" }
func (s storeChecker) Check(ctx context.Context) error { return s.store.Ping(ctx) }

// close runs the registered closers in reverse order.
func (a *Application) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if err := a.close(context.Background()); err != nil {
			a.logger.Warn("shutdown dependencies", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting records API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
	)

	grpcErrCh := make(chan error, 1)
	if a.grpcServer != nil {
		grpcAddr := fmt.Sprintf("%s:%d", a.cfg.GRPC.Host, a.cfg.GRPC.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		defer a.grpcServer.GracefulStop()

		go a.grpcServer.WatchHealth(ctx, a.cfg.GRPC.HealthInterval)
		go func() {
			a.logger.Info("starting gRPC health server", zap.String("address", grpcAddr))
			if err := a.grpcServer.Serve(lis); err != nil {
				grpcErrCh <- fmt.Errorf("run grpc server: %w", err)
			}
		}()
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-grpcErrCh:
		return err
	}
}
