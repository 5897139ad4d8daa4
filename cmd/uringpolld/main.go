// File: cmd/uringpolld/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// uringpolld is a demo poll daemon: it arms a handful of pipe fds on the
// io_uring dispatcher (falling back to the epoll reactor when io_uring is
// unavailable), reads and counts whatever arrives on them (nothing is written
// back), and prints periodic throughput stats until interrupted.

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/kestrelnet/uringdispatch/control"
	"github.com/kestrelnet/uringdispatch/dispatcher"
	"github.com/kestrelnet/uringdispatch/internal/concurrency"
	"github.com/kestrelnet/uringdispatch/reactor"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:    "uringpolld",
		Usage:   "io_uring readiness dispatcher demo daemon",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"URINGPOLLD_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "ring-depth",
				Value: 256,
				Usage: "io_uring submission queue depth",
			},
			&cli.IntFlag{
				Name:  "batch-threshold",
				Value: 8,
				Usage: "pending SQEs before an eager flush",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Value: 32,
				Usage: "completions peeked per loop iteration",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: 0,
				Usage: "executor worker count (0 = NumCPU)",
			},
			&cli.IntFlag{
				Name:  "pipes",
				Value: 4,
				Usage: "number of demo pipe pairs to arm",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug-level logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type daemonConfig struct {
	RingDepth      uint32
	BatchThreshold int
	BatchSize      int
	Workers        int
	Pipes          int
	Debug          bool
}

func loadConfig(c *cli.Context) (daemonConfig, error) {
	v := viper.New()
	v.SetDefault("ring_depth", c.Int("ring-depth"))
	v.SetDefault("batch_threshold", c.Int("batch-threshold"))
	v.SetDefault("batch_size", c.Int("batch-size"))
	v.SetDefault("workers", c.Int("workers"))
	v.SetDefault("pipes", c.Int("pipes"))
	v.SetDefault("debug", c.Bool("debug"))

	if path := c.String("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return daemonConfig{}, fmt.Errorf("uringpolld: read config: %w", err)
		}
	}

	return daemonConfig{
		RingDepth:      uint32(v.GetInt("ring_depth")),
		BatchThreshold: v.GetInt("batch_threshold"),
		BatchSize:      v.GetInt("batch_size"),
		Workers:        v.GetInt("workers"),
		Pipes:          v.GetInt("pipes"),
		Debug:          v.GetBool("debug"),
	}, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("uringpolld: logger init: %w", err)
	}
	defer logger.Sync()

	registry := control.NewMetricsRegistry()
	readLatency := control.NewLatencyWindow(256)
	writeLatency := control.NewLatencyWindow(256)

	var echoed, dropped int64

	echoHandler := func(fds map[int]int) api.Callback {
		return func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
			fd, ok := fds[int(token)]
			if !ok || events&api.Hangup != 0 {
				return
			}
			var buf [4096]byte
			n, err := syscall.Read(fd, buf[:])
			if err != nil || n == 0 {
				atomic.AddInt64(&dropped, 1)
				return
			}
			atomic.AddInt64(&echoed, 1)
		}
	}

	fds := make(map[int]int, cfg.Pipes)
	writeFds := make([]int, 0, cfg.Pipes)
	for i := 0; i < cfg.Pipes; i++ {
		var p [2]int
		if err := syscall.Pipe(p[:]); err != nil {
			return fmt.Errorf("uringpolld: create demo pipe: %w", err)
		}
		fds[i+1] = p[0]
		writeFds = append(writeFds, p[1])
	}

	executor := concurrency.NewExecutor(cfg.Workers)
	defer executor.Close()
	queueLatency := control.NewLatencyWindow(256)
	executor.SetQueueLatencyRecorder(queueLatency)

	echoCallback := echoHandler(fds)

	dcfg := dispatcher.DefaultConfig()
	dcfg.RingDepth = cfg.RingDepth
	dcfg.BatchThreshold = cfg.BatchThreshold
	dcfg.BatchSize = cfg.BatchSize
	dcfg.Logger = logger
	dcfg.Metrics = api.Metrics{ReadLatency: readLatency, WriteLatency: writeLatency}
	dcfg.Scheduler = concurrency.NewScheduler(concurrency.NewAffinity())
	dcfg.InputCallback = func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
		// Offloaded to the executor so a slow read never delays the next
		// completion drain; errors here only mean the executor is saturated.
		_ = executor.SubmitCallback(token, events, attr, echoCallback)
	}

	d, err := dispatcher.New(dcfg)
	if err != nil {
		return fmt.Errorf("uringpolld: dispatcher init: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if d.Available() {
		logger.Info("io_uring available, dispatcher active")
		if err := d.Start(0); err != nil {
			return fmt.Errorf("uringpolld: dispatcher start: %w", err)
		}
		for token, fd := range fds {
			if err := d.AddConsumer(api.EventToken(token), fd); err != nil {
				return fmt.Errorf("uringpolld: register fd: %w", err)
			}
		}
		defer d.Close()
	} else {
		logger.Warn("io_uring unavailable, falling back to epoll reactor")
		r, err := reactor.NewReactor()
		if err != nil {
			return fmt.Errorf("uringpolld: reactor init: %w", err)
		}
		defer r.Close()
		for token, fd := range fds {
			tok, fdCopy := api.EventToken(token), fd
			cb := echoHandler(fds)
			if err := r.Register(uintptr(fdCopy), api.Readable, tok, 0, cb); err != nil {
				return fmt.Errorf("uringpolld: reactor register: %w", err)
			}
		}
		stopCh := make(chan struct{})
		go func() {
			for {
				select {
				case <-stopCh:
					return
				default:
					if err := r.Poll(500); err != nil {
						logger.Error("reactor poll failed", zap.Error(err))
						return
					}
				}
			}
		}()
		defer close(stopCh)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	_ = executor.Submit(func() {
		for _, wfd := range writeFds {
			syscall.Write(wfd, []byte("ping"))
		}
	})

	for {
		select {
		case <-sigCh:
			logger.Info("signal received, shutting down",
				zap.Int64("echoed", atomic.LoadInt64(&echoed)),
				zap.Int64("dropped", atomic.LoadInt64(&dropped)))
			return nil
		case <-ticker.C:
			stats := executor.Stats()
			logger.Info("stats",
				zap.Int64("echoed", atomic.LoadInt64(&echoed)),
				zap.Int64("dropped", atomic.LoadInt64(&dropped)),
				zap.Float64("read_latency_mean_ns", readLatency.Mean()),
				zap.Float64("write_latency_mean_ns", writeLatency.Mean()),
				zap.Float64("queue_latency_mean_ns", queueLatency.Mean()),
				zap.Int64("executor_dropped_tasks", stats["dropped_tasks"]))
			registry.Set("echoed", atomic.LoadInt64(&echoed))
			registry.Set("dropped", atomic.LoadInt64(&dropped))
		}
	}
}
