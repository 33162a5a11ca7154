package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"

	"github.com/dockersweep/dockersweep/adapters/v1"
	"github.com/dockersweep/dockersweep/config"
	"github.com/dockersweep/dockersweep/core/services"
	"github.com/dockersweep/dockersweep/internal/tools"
)

func main() {
	var (
		rulesPath     = flag.String("rules", "", "Path of the rules file to read")
		statements    = flag.String("statements", "", "Do not read the rules file, evaluate these rules instead")
		dryRun        = flag.Bool("dry-run", false, "Do not delete anything, just print what would happen")
		dockerHost    = flag.String("docker-host", "", "Docker daemon host (defaults to the environment)")
		configDir     = flag.String("config-dir", ".", "Directory containing dockersweep.json")
		concurrency   = flag.Int("eval-concurrency", 0, "Number of concurrent rule evaluations")
		removeTimeout = flag.Duration("remove-timeout", 0, "Timeout for a single removal call")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Println("dockersweep - rule-driven cleanup of Docker containers and images")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  dockersweep [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  dockersweep -rules cleanup-rules.conf")
		fmt.Println("  dockersweep -statements \"DELETE IMAGE IF Image.Dangling;\" -dry-run")
		return
	}

	ctx := context.Background()

	c, err := config.LoadConfig(*configDir)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("load config error", helpers.Error(err))
	}
	if *rulesPath != "" {
		c.RulesPath = *rulesPath
	}
	if *dryRun {
		c.DryRun = true
	}
	if *dockerHost != "" {
		c.DockerHost = *dockerHost
	}
	if *concurrency > 0 {
		c.EvalConcurrency = *concurrency
	}
	if *removeTimeout > time.Duration(0) {
		c.RemoveTimeout = *removeTimeout
	}

	// to enable otel, set OTEL_COLLECTOR_SVC=otel-collector:4317
	if otelHost, present := os.LookupEnv("OTEL_COLLECTOR_SVC"); present {
		ctx = logger.InitOtel("dockersweep",
			os.Getenv("RELEASE"),
			"", "",
			url.URL{Host: otelHost})
		defer logger.ShutdownOtel(ctx)
	}

	// modify context to listen to interrupt signals from the OS.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.L().Info("starting dockersweep",
		helpers.String("version", tools.PackageVersion("github.com/dockersweep/dockersweep")),
		helpers.String("dockerVersion", tools.PackageVersion("github.com/docker/docker")))

	rulesSource := *statements
	if rulesSource == "" {
		b, err := os.ReadFile(c.RulesPath)
		if err != nil {
			logger.L().Ctx(ctx).Fatal("could not open rules file",
				helpers.String("path", c.RulesPath), helpers.Error(err))
		}
		rulesSource = string(b)
	}

	adapter, err := v1.NewDockerAdapter(c.DockerHost, c.RemoveTimeout)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("docker client initialization error", helpers.Error(err))
	}

	cleanupService := services.NewCleanupService(adapter, adapter, os.Stdout, c.DryRun, c.EvalConcurrency)
	if err := cleanupService.Run(ctx, rulesSource); err != nil {
		logger.L().Ctx(ctx).Fatal("cleanup failed", helpers.Error(err))
	}
}
