package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"example.com/gotorrent/lib/config"
	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
	"example.com/gotorrent/lib/runner"
	"example.com/gotorrent/lib/transport/echohttp"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	store := flag.String("store", "", "skv database for peer lists (default in-memory)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: serve [flags] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := serve(*addr, *store, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(addr, store, path string) error {
	cfg, err := config.FromEnv(config.Default(), os.LookupEnv)
	if err != nil {
		return err
	}
	if store != "" {
		cfg.StorePath = store
	}
	if err := logger.SetRule(cfg.LogRule); err != nil {
		return err
	}

	m, err := domain.LoadMetadata(path)
	if err != nil {
		return err
	}
	r, err := runner.New(cfg, m)
	if err != nil {
		return err
	}
	defer r.Close()

	h := &echohttp.HTTPServe{
		Metadata: m,
		Hosts:    r.Hosts,
		Download: r.Download,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- h.Start(addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Log.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Shutdown(shutdownCtx)
}
