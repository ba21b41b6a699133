package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/config"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	grpcserver "github.com/psds-microservice/search-facade/internal/grpc"
	"github.com/psds-microservice/search-facade/internal/kafka"
	"github.com/psds-microservice/search-facade/internal/router"
)

const shutdownTimeout = 10 * time.Second

// API runs the HTTP and gRPC servers (api mode).
type API struct {
	*Core
	httpSrv *http.Server
	grpcSrv *grpcserver.Server
	lis     net.Listener
}

// NewAPI builds the application for api mode. The e-commerce index is created with its
// mapping when the engine does not have it yet.
func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := core.Service.EnsureIndex(ctx, cfg.Indices.Ecommerce, es.EcommerceMapping()); err != nil {
		core.Logger.Warn("ensure e-commerce index", zap.String("index", cfg.Indices.Ecommerce), zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		_ = core.Close()
		return nil, fmt.Errorf("grpc listen %s: %w (port in use, stop the other process or set GRPC_PORT)", cfg.GRPCAddr(), err)
	}
	grpcSrv := grpcserver.NewServer(grpcserver.Deps{
		Engine: core.Service,
		Logger: core.Logger.Logger,
	})

	opts := router.Options{Logger: core.Logger.Logger}
	if cfg.Metrics.Enabled {
		opts.Metrics = core.Metrics
		opts.MetricsPath = cfg.Metrics.Path
	}
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router.New(core.Service, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{Core: core, httpSrv: httpSrv, grpcSrv: grpcSrv, lis: lis}, nil
}

// Handler is the HTTP handler served by Run.
func (a *API) Handler() http.Handler { return a.httpSrv.Handler }

// GRPCAddr is the address the gRPC listener is bound to.
func (a *API) GRPCAddr() string { return a.lis.Addr().String() }

// Run starts the HTTP and gRPC servers and blocks until ctx is cancelled or a server fails.
func (a *API) Run(ctx context.Context) error {
	defer a.Close()

	a.Logger.Info("HTTP server listening",
		zap.String("addr", a.httpSrv.Addr),
		zap.String("health", router.PathHealth),
		zap.String("ready", router.PathReady),
		zap.Bool("metrics", a.Config.Metrics.Enabled),
	)
	a.Logger.Info("gRPC server listening (health, reflection)", zap.String("addr", a.GRPCAddr()))

	errCh := make(chan error, 2)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := a.grpcSrv.Serve(a.lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go a.grpcSrv.Monitor(monitorCtx)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.Logger.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.grpcSrv.GracefulStop()
	a.Logger.Info("servers stopped")
	return runErr
}

// Worker consumes document events from Kafka (worker mode).
type Worker struct {
	*Core
	dispatcher *kafka.Dispatcher
}

func NewWorker(ctx context.Context, cfg *config.Config) (*Worker, error) {
	if len(cfg.Kafka.Brokers) == 0 || len(cfg.Kafka.Topics) == 0 {
		return nil, errors.New("worker requires KAFKA_BROKERS and KAFKA_TOPICS")
	}
	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Worker{
		Core:       core,
		dispatcher: kafka.NewDispatcher(core.Service, core.Logger.Logger, core.Metrics),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	defer w.Close()
	kafka.RunConsumer(ctx, kafka.ConsumerConfig{
		Brokers: w.Config.Kafka.Brokers,
		GroupID: w.Config.Kafka.GroupID,
		Topics:  w.Config.Kafka.Topics,
	}, w.dispatcher, w.Logger.Logger)
	w.Logger.Info("worker: bye")
	return nil
}
