package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/app"
	"github.com/dayyanintl/surgishop/internal/shopapi"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

const shutdownTimeout = 30 * time.Second

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables")
)

var (
	BuildVersion = "dev"
	BuildTime    = ""
)

func main() {
	flag.Parse()

	if *h {
		flag.Usage()
		return
	}
	if *showVer {
		fmt.Printf("surgishop %s %s\n", BuildVersion, BuildTime)
		return
	}

	cfg := config.LoadConfig(*conffile)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	cfg.InitDirs()

	application := app.NewApplication(cfg)
	application.Init(cfg)

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		application.Release()
		return
	}

	webserver.Init(application)
	shopapi.Init()

	go func() {
		if err := webserver.Start(); err != nil {
			zap.S().Fatalf("web server stopped: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"webserver": func(ctx context.Context) error {
				err := webserver.Shutdown(ctx)
				application.Release()
				return err
			},
		},
	)
	exitCode := <-wait
	zap.S().Infof("surgishop exited with code %d", exitCode)
	os.Exit(exitCode)
}
