package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/document"
	gatewaysvc "github.com/trezcool/masomo-console/services/gateway"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	notifysvc "github.com/trezcool/masomo-console/services/notify"
	credstorage "github.com/trezcool/masomo-console/storage/credential"
)

var std *log.Logger

func main() {
	std = log.New(os.Stderr, "CONSOLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)
	if !conf.Debug {
		std.SetOutput(io.Discard)
	}

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up credential store
	ctx := context.Background()
	store, closeStore, err := credstorage.Open(ctx, conf)
	errAndDie(err)

	gw, err := gatewaysvc.New(gatewaysvc.Config{
		BaseURL:    conf.API.BaseURL,
		Timeout:    conf.API.Timeout,
		Store:      store,
		Logger:     logger,
		Registerer: prometheus.DefaultRegisterer,
	})
	errAndDie(err)

	// start CLI
	cli, err := newCommandLine(deps{
		gateway:  gw,
		store:    store,
		notifier: notifysvc.NewConsole(os.Stdout),
		logger:   logger,
		previews: document.NewTempPool(filepath.Join(os.TempDir(), "masomo-previews")),
		out:      os.Stdout,
	})
	errAndDie(err)

	err = cli.run(os.Args)
	cli.close()
	if cerr := closeStore(); cerr != nil {
		logger.Error("closing credential store", cerr)
	}
	if err != nil {
		if err != errHelp && err != errFailed {
			log.New(os.Stderr, "", 0).Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.New(os.Stderr, "CONSOLE : ", 0).Fatalf("%+v", err)
	}
}
