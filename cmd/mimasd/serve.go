package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/est31/mimas-go/auth"
	"github.com/est31/mimas-go/config"
	"github.com/est31/mimas-go/gameparams"
	"github.com/est31/mimas-go/session"
	"github.com/est31/mimas-go/storage"
	"github.com/est31/mimas-go/transport"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serveCmd wires config, storage, auth and the game params into a running
// session.Server, generalizing the teacher's main (construct manager,
// construct state, construct hub, start ticker, register handler, listen)
// to this module's equivalents (open storage, compile game params,
// construct session.Server, start Run, register the websocket handler,
// listen) plus a sibling metrics listener.
func serveCmd() *cobra.Command {
	var (
		configPath  string
		listenAddr  string
		metricsAddr string
		singleplayer bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, listenAddr, metricsAddr, singleplayer)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "mimasd.toml", "path to the server configuration file")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "address the websocket game listener binds to")
	cmd.Flags().StringVar(&metricsAddr, "metrics-listen", ":9100", "address the Prometheus metrics listener binds to")
	cmd.Flags().BoolVar(&singleplayer, "singleplayer", false, "skip authentication and run an ephemeral, unpersisted world")

	return cmd
}

func runServe(configPath, listenAddr, metricsAddr string, singleplayer bool) error {
	cfg := config.Load(configPath)
	log := logrus.WithField("component", "mimasd")

	storageBack, authBack, closeBackends, err := openBackends(cfg, singleplayer)
	if err != nil {
		return err
	}
	defer closeBackends()

	nm, err := storage.LoadNameIDMap(storageBack, nil)
	if err != nil {
		return err
	}
	if bb, ok := storageBack.(*storage.BadgerBackend); ok {
		bb.SetNameMap(nm)
	}

	gpCfg, err := gameparams.LoadDefault()
	if err != nil {
		return err
	}
	params, err := gameparams.Compile(gpCfg, nm)
	if err != nil {
		return err
	}
	if err := storage.SaveNameIDMap(storageBack, nm); err != nil {
		return err
	}

	srv := session.New(cfg, params, nm, storageBack, authBack, singleplayer)

	stop := make(chan struct{})
	go srv.Run(stop)

	gameSrv := &http.Server{
		Addr:    listenAddr,
		Handler: gameHandler(srv, log),
	}
	metricsSrv := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.Handler(),
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("addr", listenAddr).Info("game listener starting")
		if err := gameSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		log.WithField("addr", metricsAddr).Info("metrics listener starting")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("a listener failed")
	case s := <-sig:
		log.WithField("signal", s).Info("shutting down")
	}

	close(stop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = gameSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	return nil
}

// gameHandler upgrades every request on the game listener to a websocket
// connection and hands it to srv, matching the teacher's
// makeWebSocketHandler closure.
func gameHandler(srv *session.Server, log *logrus.Entry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		log.WithField("remote", r.RemoteAddr).Info("client connected")
		srv.AcceptConn(transport.NewConn(ws))
	})
	return mux
}

// openBackends picks the storage/auth backends for the run mode: Badger
// backends rooted at cfg.MapStoragePath for a persistent multiplayer
// server, or in-memory NullBackend and no auth backend (nil) when running
// singleplayer or when cfg.MapStoragePath is empty. The returned close
// func releases whatever was opened.
func openBackends(cfg config.Config, singleplayer bool) (storage.Backend, auth.Backend, func(), error) {
	if singleplayer || cfg.MapStoragePath == "" {
		return storage.NullBackend{}, nil, func() {}, nil
	}

	sb, err := storage.OpenBadger(cfg.MapStoragePath+"/chunks", nil)
	if err != nil {
		return nil, nil, nil, err
	}
	ab, err := auth.OpenBadger(cfg.MapStoragePath + "/auth")
	if err != nil {
		_ = sb.Close()
		return nil, nil, nil, err
	}
	return sb, ab, func() {
		_ = sb.Close()
		_ = ab.Close()
	}, nil
}
