package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RegimeNews/internal/handler/ws"
	"RegimeNews/internal/usecase"
	"RegimeNews/pkg/config"
	xhttp "RegimeNews/pkg/http"
	pkgkafka "RegimeNews/pkg/kafka"
	applogger "RegimeNews/pkg/logger"
)

// App owns the long-running parts of the service: the HTTP and websocket
// server, the run-request consumer and the overlay scheduler.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	stream     *ws.StreamHandler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	scheduler  *usecase.Scheduler
}

// New creates an App. consumer may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	stream *ws.StreamHandler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	scheduler *usecase.Scheduler,
) *App {
	return &App{
		cfg:        cfg,
		l:          l.Component("app"),
		httpServer: httpServer,
		stream:     stream,
		consumer:   consumer,
		kh:         kh,
		scheduler:  scheduler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.scheduler.Start(); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("mode", a.cfg.Pipeline.Mode),
		applogger.Int("n_regimes", a.cfg.Pipeline.NRegimes),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}
	a.stream.Close()

	a.l.Info("shutdown complete")
	return nil
}
