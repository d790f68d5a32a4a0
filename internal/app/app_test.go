package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
	testhelpers "github.com/polkiloo/golightpay/internal/test"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/worker"
)

type webhookSetupStub struct {
	called chan struct{}
}

func (s *webhookSetupStub) Configure(context.Context) usecase.ConfigureResult {
	s.called <- struct{}{}
	return usecase.ConfigureUnchanged
}

func newTestInvoiceSyncer() *worker.InvoiceSyncer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return worker.NewInvoiceSyncer(&testhelpers.SyncFacadeStub{}, 10*time.Millisecond, time.Minute, 1, 1, logger)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewInvoiceSyncerUsesConfig(t *testing.T) {
	syncer := newInvoiceSyncer(workerParams{
		Facade: &StoreFacade{},
		Config: &config.Config{InvoiceSyncInterval: 15 * time.Second, InvoiceSyncAge: time.Minute, MaxOrdersBatch: 3, WorkerPoolSize: 4},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if syncer == nil || !syncer.Enabled() {
		t.Fatal("expected enabled invoice syncer")
	}

	syncer = newInvoiceSyncer(workerParams{
		Facade: &StoreFacade{},
		Config: &config.Config{},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if syncer.Enabled() {
		t.Fatal("zero interval must leave the syncer disabled")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	worker := newTestInvoiceSyncer()
	setup := &webhookSetupStub{called: make(chan struct{}, 1)}
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond, AutoConfigureWebhook: true}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Worker:     worker,
		Webhook:    setup,
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	hook := recorder.Hooks[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hook.OnStart(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	select {
	case <-setup.called:
	case <-time.After(time.Second):
		t.Fatal("expected webhook auto-configuration on start")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hook.OnStop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	server := &http.Server{Addr: "bad addr"}
	worker := newTestInvoiceSyncer()
	setup := &webhookSetupStub{called: make(chan struct{}, 1)}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Worker:     worker,
		Webhook:    setup,
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())

	select {
	case <-setup.called:
		t.Fatal("webhook must not be configured when auto-configuration is off")
	default:
	}
}

func TestLifecycleRecorderAppend(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	hook := fx.Hook{}
	recorder.Append(hook)
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected hook to be appended")
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
