package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nmcp-sl/supervise/app"
	"github.com/nmcp-sl/supervise/config"
	"github.com/nmcp-sl/supervise/gateway"
	"github.com/nmcp-sl/supervise/httpx"
	"github.com/nmcp-sl/supervise/log"
	"github.com/nmcp-sl/supervise/report"
	"github.com/nmcp-sl/supervise/routes"
	"github.com/nmcp-sl/supervise/store"
	"github.com/nmcp-sl/supervise/syncer"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	st, err := store.Open(cfg)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	defer st.Close()

	err = st.EnsureSupervisor(context.Background(), cfg.AdminUser, cfg.AdminPass)
	if err != nil {
		log.Fatal("main.store.seed:", err)
	}

	gw := gateway.New(cfg)
	if !gw.Configured() {
		log.Warn("gateway URL not configured - submissions will stay queued locally")
	}

	notices := syncer.NewLogNotifier()
	monitor := syncer.NewMonitor(true, notices)
	drafts := syncer.NewDrafts(st, notices)
	engine := syncer.NewEngine(st, gw, monitor, drafts, notices, cfg.DeliveryTimeout, cfg.ArchiveLimit)
	reports := report.NewService(gw, gw, engine.Archive)

	bearerServer := httpx.NewBearerServer(st.DB(), cfg)

	app := app.App{
		Store:        st,
		BearerServer: bearerServer,
		Config:       cfg,
		Monitor:      monitor,
		Engine:       engine,
		Drafts:       drafts,
		Notices:      notices,
		Reports:      reports,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
