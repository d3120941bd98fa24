package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/venuedraw/internal/displaysim"
	"github.com/okian/venuedraw/pkg/logger"
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		eventCode  = flag.String("event", "", "Event code to join")
		codes      = flag.String("code", "", "Comma separated device codes to use before prompting")
		adminToken = flag.String("admin-token", "", "Admin token used to generate codes")
		eventID    = flag.String("event-id", "", "Event id used with -admin-token")
		heartbeat  = flag.Duration("heartbeat", 0, "Override the advertised heartbeat interval")
		failures   = flag.Int("failures", displaysim.DefaultMaxFailures, "Consecutive heartbeat failures before re-pairing")
		timeout    = flag.Duration("timeout", displaysim.DefaultTimeout, "HTTP request timeout")
		photos     = flag.Bool("photos", false, "Also follow the photo channel")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every stream message")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *eventCode == "" {
		displaysim.ShowHelp()
		return
	}

	closer, err := displaysim.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := displaysim.Config{
		BaseURL:           *baseURL,
		EventCode:         *eventCode,
		Timeout:           *timeout,
		HeartbeatInterval: *heartbeat,
		MaxFailures:       *failures,
		Photos:            *photos,
		Verbose:           *verbose,
	}
	client := displaysim.NewClient(cfg.BaseURL, cfg.Timeout)

	var sources []displaysim.CodeSource
	if *codes != "" {
		sources = append(sources, displaysim.CodeList(strings.Split(*codes, ",")...))
	}
	if *adminToken != "" && *eventID != "" {
		sources = append(sources, displaysim.AdminCodes(client, *adminToken, *eventID))
	} else {
		sources = append(sources, displaysim.PromptCodes(os.Stdin, os.Stdout))
	}

	sim := displaysim.New(cfg, displaysim.ChainCodes(sources...), displaysim.WithClient(client))
	start := time.Now()
	err = sim.Run(ctx)
	log := logger.Get()
	log.Info(context.Background(), sim.Stats().Summary(), logger.Duration("elapsed", time.Since(start)))
	if err != nil && !errors.Is(err, displaysim.ErrNoMoreCodes) {
		log.Error(context.Background(), "display simulator failed", logger.Error(err))
		os.Exit(1)
	}
}
