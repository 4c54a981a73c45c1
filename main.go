package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/icedb/gologger"
	"github.com/danthegoodman1/icedb/http_server"
	"github.com/danthegoodman1/icedb/utils"
)

var logger = gologger.NewLogger()

func main() {
	if len(os.Args) > 1 && os.Args[1] == "load" {
		if err := runLoad(context.Background(), os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Debug().Msg("starting icedb loader")

	l, err := newLoader(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("error creating loader")
		os.Exit(1)
	}

	httpServer := http_server.StartHTTPServer(l)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	if err := l.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown loader")
	}
}
