// cmd/pageprobe/main.go - Command line entry point
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/config"
	pperrors "github.com/valpere/PageProbe/internal/errors"
	"github.com/valpere/PageProbe/internal/fixture"
	"github.com/valpere/PageProbe/internal/monitoring"
	"github.com/valpere/PageProbe/internal/output"
	"github.com/valpere/PageProbe/internal/suite"
	"github.com/valpere/PageProbe/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const defaultServeAddr = "127.0.0.1:8080"

// Global error service instance
var errorService = pperrors.NewService()

// runSuite loads the configuration, runs every case and writes the reports
func runSuite(args []string) {
	verbose := hasFlag("-v") || hasFlag("--verbose")
	errorService = errorService.WithVerbose(verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFile := firstArg(args)
	err := executeSuite(ctx, os.Stdout, configFile, hasFlag("--local"), verbose)
	if err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		os.Exit(errorService.GetExitCode(err))
	}
}

// validateConfig checks a configuration file and reports every problem
func validateConfig(configFile string) {
	verbose := hasFlag("-v") || hasFlag("--verbose")
	errorService = errorService.WithVerbose(verbose)

	if err := executeValidation(os.Stdout, configFile, verbose); err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		os.Exit(errorService.GetExitCode(err))
	}

	fmt.Printf("✓ Configuration file '%s' is valid\n", configFile)
}

// generateTemplate renders a template configuration as YAML
func generateTemplate(args []string) (string, error) {
	templateType := "xkcd"
	for i, arg := range args {
		if arg == "--type" && i+1 < len(args) {
			templateType = args[i+1]
		}
	}

	template := config.GenerateTemplate(templateType)

	yamlData, err := yaml.Marshal(template)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template to YAML: %w", err)
	}

	return string(yamlData), nil
}

// loadConfig reads configFile, or returns the built-in suite when empty.
func loadConfig(configFile string) (*config.SuiteConfig, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configFile)
}

func newLogger(cfg utils.LogConfig, verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg.Level = "debug"
	}
	logger, err := utils.NewLogger(cfg)
	if err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "invalid log configuration").WithCause(err).Build()
	}
	return logger, nil
}

// executeSuite performs one full run and returns ErrCasesFailed when any
// case did not pass.
func executeSuite(ctx context.Context, out io.Writer, configFile string, local, verbose bool) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if local {
		addr, shutdown, err := startReplica(logger)
		if err != nil {
			return err
		}
		defer shutdown()
		cfg.UseReplica(addr)
		logger.Info("running against local replica", zap.String("addr", addr))
	}

	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{
		Namespace: cfg.Metrics.Namespace,
		Labels:    cfg.Metrics.Labels,
	})

	s, err := suite.New(cfg, logger, metrics)
	if err != nil {
		return utils.NewError(utils.ErrCodeInvalidConfig, "failed to build suite").WithCause(err).Build()
	}

	if verbose {
		fmt.Fprintf(out, "Suite: %s\n", s.Name())
		fmt.Fprintf(out, "Home page: %s\n", cfg.HomeURL)
		fmt.Fprintf(out, "About page: %s\n", cfg.AboutURL)
		fmt.Fprintf(out, "Cases: %s\n", strings.Join(s.Cases(), ", "))
	}

	report, err := s.Run(ctx, browser.ChromeOpener(&cfg.Browser, logger))
	if err != nil {
		return err
	}
	printReport(out, report)

	var errs []error
	if len(cfg.Outputs) > 0 {
		if err := output.NewManager(cfg.Outputs).Write(ctx, report.Records()); err != nil {
			errs = append(errs, utils.NewError(utils.ErrCodeOutputFailed, "failed to write results").WithCause(err).Build())
		}
	}
	if cfg.Metrics.File != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.File); err != nil {
			errs = append(errs, utils.NewError(utils.ErrCodeOutputFailed, "failed to write metrics").
				WithContext("file", cfg.Metrics.File).WithCause(err).Build())
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if report.Failed() > 0 {
		return pperrors.ErrCasesFailed
	}
	return nil
}

// printReport writes one line per case and a summary line.
func printReport(out io.Writer, report *suite.Report) {
	for _, res := range report.Results {
		switch res.Outcome {
		case suite.OutcomePass:
			fmt.Fprintf(out, "✓ %-20s %s\n", res.Case, res.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(out, "✗ %-20s %s  %s: %s\n", res.Case, res.Duration.Round(time.Millisecond), res.Outcome, res.Message())
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d errors in %s\n",
		report.Count(suite.OutcomePass),
		report.Count(suite.OutcomeFail),
		report.Count(suite.OutcomeError),
		report.Duration.Round(time.Millisecond))
}

// startReplica serves the local replica on a free loopback port.
func startReplica(logger *zap.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, utils.NewError(utils.ErrCodeInternal, "failed to start local replica").WithCause(err).Build()
	}

	server := fixture.NewServer(listener.Addr().String(), logger)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("replica server stopped", zap.Error(err))
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
	return listener.Addr().String(), shutdown, nil
}

// executeValidation loads and validates configFile
func executeValidation(out io.Writer, configFile string, verbose bool) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(out, "Configuration details:\n")
		fmt.Fprintf(out, "  Name: %s\n", cfg.Name)
		fmt.Fprintf(out, "  Home URL: %s\n", cfg.HomeURL)
		fmt.Fprintf(out, "  About URL: %s\n", cfg.AboutURL)
		fmt.Fprintf(out, "  Style checks: %d\n", len(cfg.Expectations.Styles))
		fmt.Fprintf(out, "  Outputs: %d\n", len(cfg.Outputs))
	}

	return nil
}

// newServeHandler returns the replica routes plus metrics and health
// endpoints.
func newServeHandler(addr string, logger *zap.Logger) http.Handler {
	router := fixture.NewRouter(logger)

	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{EnableGoMetrics: true})
	router.Handle("/metrics", metrics.MetricsHandler())

	health := monitoring.NewHealthManager(2 * time.Second)
	health.RegisterCheck(monitoring.HTTPHealthCheck("about_page", "http://"+addr+"/about/", true))
	health.RegisterCheck(monitoring.GoroutineHealthCheck(1000))
	router.HandleFunc("/health", health.HealthHandler())

	return router
}

// serveReplica serves the replica until interrupted
func serveReplica(addr string) error {
	logger, err := newLogger(utils.LogConfig{Level: "info", Development: true}, hasFlag("-v") || hasFlag("--verbose"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           newServeHandler(addr, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("serving replica", zap.String("addr", "http://"+addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// hasFlag checks if a flag is present in command line arguments
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// firstArg returns the first positional argument, or "".
func firstArg(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--type" {
			i++
			continue
		}
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	return ""
}

// main function handles CLI arguments and routes to appropriate functions
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(pperrors.ExitFailure)
	}

	command := os.Args[1]

	switch command {
	case "run":
		runSuite(os.Args[2:])

	case "validate":
		configFile := firstArg(os.Args[2:])
		if configFile == "" {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: pageprobe validate <config.yaml>\n")
			os.Exit(pperrors.ExitConfigError)
		}
		validateConfig(configFile)

	case "template":
		template, err := generateTemplate(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(pperrors.ExitFailure)
		}
		fmt.Print(template)

	case "serve":
		addr := firstArg(os.Args[2:])
		if addr == "" {
			addr = defaultServeAddr
		}
		if err := serveReplica(addr); err != nil {
			fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
			os.Exit(errorService.GetExitCode(err))
		}

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(pperrors.ExitFailure)
	}
}

// printUsage displays help information
func printUsage() {
	fmt.Println("PageProbe - UI regression checks for the xkcd About page")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pageprobe run [config.yaml]              Run the suite (built-in xkcd suite when no file is given)")
	fmt.Println("  pageprobe validate <config.yaml>         Validate configuration file")
	fmt.Println("  pageprobe template [--type <type>]       Generate configuration template")
	fmt.Println("  pageprobe serve [addr]                   Serve the local replica (default " + defaultServeAddr + ")")
	fmt.Println("  pageprobe version                        Show version information")
	fmt.Println("  pageprobe help                           Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose                            Enable verbose output")
	fmt.Println("  --local                                  Run against a local replica instead of xkcd.com")
	fmt.Println()
	fmt.Println("Template types:")
	fmt.Println("  xkcd        The public site suite (default)")
	fmt.Println("  local       The suite against 'pageprobe serve'")
	fmt.Println("  reports     The public site suite with JSON, JUnit and SQLite reports")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0 all cases passed, 1 a case failed, 2 configuration error, 3 browser unavailable")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("PageProbe %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
