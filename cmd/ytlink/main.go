package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mxpv/ytlink/pkg/db"
	"github.com/mxpv/ytlink/pkg/resolver"
	"github.com/mxpv/ytlink/pkg/server"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"YTLINK_CONFIG_PATH"`
	Debug      bool   `long:"debug"`
	To         string `long:"to" description:"Convert links to this variant (watch, embed or short) instead of printing video codes"`
	Args       struct {
		Links []string `positional-arg-name:"LINK"`
	} `positional-args:"yes"`
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	// One-shot mode, convert links passed via command line and exit
	if len(opts.Args.Links) > 0 {
		if err := convert(os.Stdout, opts.Args.Links, opts.To); err != nil {
			log.WithError(err).Error("conversion failed")
			os.Exit(1)
		}
		return
	}

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	if cfg.Log.Filename != "" {
		log.Infof("writing logs to %s", cfg.Log.Filename)
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Log.Filename,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		})
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running ytlink")

	storage, err := db.NewBadger(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	defer func() {
		if err := storage.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}
	}()

	res := resolver.New(storage)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	cronLog := cronLogger{entry: log.WithField("component", "cron")}
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog)))

	group.Go(func() error {
		defer func() {
			log.Info("shutting down cron")
			<-c.Stop().Done()
		}()

		if cfg.History.MaxAge > 0 {
			_, err := c.AddFunc(cfg.History.Schedule, func() {
				log.Debugf("pruning videos not accessed for %s", cfg.History.MaxAge)
				if _, err := res.Cleanup(ctx, cfg.History.MaxAge); err != nil {
					log.WithError(err).Error("failed to cleanup history")
				}
			})
			if err != nil {
				return errors.Wrap(err, "can't create cron task for history cleanup")
			}

			log.Debugf("-> history cleanup (%s, max age %s)", cfg.History.Schedule, cfg.History.MaxAge)
		}

		c.Start()

		<-ctx.Done()
		return ctx.Err()
	})

	// Run web server
	srv := server.New(cfg.Server, res)

	group.Go(func() error {
		log.Infof("running listener at %s (%s)", srv.Addr, cfg.Server.Hostname)
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		// Shutdown web server
		defer func() {
			log.Info("shutting down web server")
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	log.Info("gracefully stopped")
}
