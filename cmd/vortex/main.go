package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/vortexhq/vortex/internal/config"
	"github.com/vortexhq/vortex/internal/history"
	"github.com/vortexhq/vortex/internal/httpexec"
	"github.com/vortexhq/vortex/internal/telemetry"
	"github.com/vortexhq/vortex/internal/vars"
	"github.com/vortexhq/vortex/internal/workspace"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		workspaceDir string
		initName     string
		envName      string
		envFile      string
		listTree     bool
		sendPath     string
		resolveText  string
		showHistory  bool
		timeout      time.Duration
		showVersion  bool
		otelEndpoint string
		otelInsecure bool
		otelService  string
		verbose      bool
	)

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)
	otelEndpoint = telemetryCfg.Endpoint
	otelInsecure = telemetryCfg.Insecure
	otelService = telemetryCfg.ServiceName

	flag.StringVar(&workspaceDir, "workspace", "", "Workspace directory (defaults to the configured default, then cwd)")
	flag.StringVar(&initName, "init", "", "Create a new workspace with the given name and exit")
	flag.StringVar(&envName, "env", "", "Active environment name")
	flag.StringVar(&envFile, "import-env", "", "Import a dotenv file as a workspace environment and exit")
	flag.BoolVar(&listTree, "list", false, "List collections and their requests")
	flag.StringVar(&sendPath, "send", "", "Execute a request by collection-relative path (<collection-dir>:<request-path>, e.g. my-api:get-users.json)")
	flag.StringVar(&resolveText, "resolve", "", "Resolve a template against the active scopes and print it")
	flag.BoolVar(&showHistory, "history", false, "Print the execution history")
	flag.DurationVar(&timeout, "timeout", 0, "Request timeout override")
	flag.BoolVar(&showVersion, "version", false, "Show vortex version")
	flag.StringVar(&otelEndpoint, "otel-endpoint", otelEndpoint, "OTLP collector endpoint for execution spans")
	flag.BoolVar(&otelInsecure, "otel-insecure", otelInsecure, "Disable TLS for OTLP export")
	flag.StringVar(&otelService, "otel-service", otelService, "Override service.name for exported spans")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("vortex %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "vortex",
		Level:  level,
		Output: os.Stderr,
	})

	settings, _, err := config.LoadSettings()
	if err != nil {
		logger.Warn("settings load failed, using defaults", "error", err)
		settings = config.DefaultSettings()
	}

	if workspaceDir == "" {
		workspaceDir = settings.DefaultWorkspace
	}
	if workspaceDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workspaceDir = wd
		} else {
			workspaceDir = "."
		}
	}
	if abs, err := filepath.Abs(workspaceDir); err == nil {
		workspaceDir = abs
	}

	repo := workspace.New(workspaceDir, workspace.WithLogger(logger.Named("workspace")))
	ctx := context.Background()

	if initName != "" {
		if _, err := repo.Create(ctx, initName); err != nil {
			log.Fatalf("init workspace: %v", err)
		}
		fmt.Printf("Created workspace %q at %s\n", initName, workspaceDir)
		os.Exit(0)
	}

	manifest, err := repo.Open(ctx)
	if err != nil {
		log.Fatalf("open workspace: %v", err)
	}
	if envName == "" {
		envName = manifest.DefaultEnvironment
	}

	if envFile != "" {
		importEnvironment(ctx, repo, envFile)
		os.Exit(0)
	}

	if resolveText != "" {
		resolveTemplate(ctx, repo, envName, resolveText)
		os.Exit(0)
	}

	if listTree {
		printTree(ctx, repo)
		os.Exit(0)
	}

	if showHistory {
		printHistory(repo, settings.History.MaxEntries)
		os.Exit(0)
	}

	if sendPath != "" {
		telemetryCfg.Endpoint = strings.TrimSpace(otelEndpoint)
		telemetryCfg.Insecure = otelInsecure
		telemetryCfg.ServiceName = strings.TrimSpace(otelService)
		if telemetryCfg.Endpoint == "" {
			// settings file is the lowest layer, below env and flags
			telemetryCfg.Endpoint = strings.TrimSpace(settings.Telemetry.Endpoint)
			telemetryCfg.Insecure = settings.Telemetry.Insecure
		}

		instr, err := telemetry.New(telemetryCfg)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
			instr = telemetry.Noop()
		}

		if timeout <= 0 {
			timeout = time.Duration(settings.HTTP.TimeoutSeconds) * time.Second
		}
		sendRequest(ctx, repo, settings, logger, instr, envName, sendPath, timeout)

		// os.Exit skips defers, so flush spans explicitly
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := instr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
		cancel()
		os.Exit(0)
	}

	flag.Usage()
	os.Exit(2)
}

func importEnvironment(ctx context.Context, repo *workspace.Repo, path string) {
	if !vars.IsDotEnvPath(path) {
		log.Fatalf("import environment: %s does not look like a dotenv file", path)
	}
	env, err := vars.ImportDotEnv(path)
	if err != nil {
		log.Fatalf("import environment: %v", err)
	}
	if err := repo.SaveEnvironment(ctx, env); err != nil {
		log.Fatalf("save environment: %v", err)
	}
	fmt.Printf("Imported %d variables into environment %q\n", len(env.Variables), env.Name)
}

func resolveTemplate(ctx context.Context, repo *workspace.Repo, envName, template string) {
	rc, err := repo.BuildContext(ctx, envName, nil)
	if err != nil {
		log.Fatalf("build scopes: %v", err)
	}
	result := rc.Resolve(template)
	fmt.Println(result.Resolved)
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(os.Stderr, "unresolved: %s\n", strings.Join(result.Unresolved, ", "))
	}
}

func printTree(ctx context.Context, repo *workspace.Repo) {
	dirs, err := repo.Collections(ctx)
	if err != nil {
		log.Fatalf("list collections: %v", err)
	}
	for _, dir := range dirs {
		tree, err := repo.LoadTree(ctx, dir)
		if err != nil {
			log.Fatalf("load collection %s: %v", dir, err)
		}
		fmt.Printf("%s (%s)\n", tree.Collection.Name, dir)
		for _, req := range tree.Requests {
			fmt.Printf("  %s %s\n", req.Method, req.Name)
		}
		for _, folder := range tree.Folders {
			printFolder(folder, "  ")
		}
	}
}

func printFolder(folder workspace.FolderTree, indent string) {
	fmt.Printf("%s%s/\n", indent, folder.Folder.Name)
	for _, req := range folder.Requests {
		fmt.Printf("%s  %s %s\n", indent, req.Method, req.Name)
	}
	for _, sub := range folder.Subfolders {
		printFolder(sub, indent+"  ")
	}
}

func printHistory(repo *workspace.Repo, maxEntries int) {
	store := history.NewStore(repo.HistoryPath(), maxEntries)
	if err := store.Load(); err != nil {
		log.Fatalf("load history: %v", err)
	}
	for _, entry := range store.Entries() {
		status := entry.Status
		if status == "" && entry.Error != "" {
			status = "error: " + entry.Error
		}
		fmt.Printf("%s  %-7s %s  %s  (%s)\n",
			entry.ExecutedAt.Format(time.RFC3339),
			entry.Method,
			entry.URL,
			status,
			entry.Duration.Round(time.Millisecond),
		)
	}
}

// sendRequest executes one stored request addressed as "<collection-dir>:<rel>",
// e.g. "my-api:get-users.json".
func sendRequest(
	ctx context.Context,
	repo *workspace.Repo,
	settings config.Settings,
	logger hclog.Logger,
	instr telemetry.Instrumenter,
	envName, sendPath string,
	timeout time.Duration,
) {
	collectionDir, rel, ok := strings.Cut(sendPath, ":")
	if !ok {
		log.Fatalf("invalid -send value %q, expected <collection-dir>:<request-path>", sendPath)
	}

	col, err := repo.LoadCollection(ctx, collectionDir)
	if err != nil {
		log.Fatalf("load collection: %v", err)
	}
	req, err := repo.LoadRequest(ctx, collectionDir, rel)
	if err != nil {
		log.Fatalf("load request: %v", err)
	}
	rc, err := repo.BuildContext(ctx, envName, &col)
	if err != nil {
		log.Fatalf("build scopes: %v", err)
	}

	store := history.NewStore(repo.HistoryPath(), settings.History.MaxEntries)
	executor := httpexec.New(
		httpexec.WithLogger(logger.Named("exec")),
		httpexec.WithInstrumenter(instr),
		httpexec.WithHistory(store),
		httpexec.WithTimeout(timeout),
	)

	resp, err := executor.Execute(ctx, req, rc, httpexec.Meta{
		Collection:  col.Name,
		Environment: envName,
	})
	if err != nil {
		log.Fatalf("execute: %v", err)
	}

	fmt.Printf("%s %s -> %s in %s\n", req.Method, req.Name, resp.Status, resp.Duration.Round(time.Millisecond))
	if len(resp.Unresolved) > 0 {
		fmt.Fprintf(os.Stderr, "unresolved: %s\n", strings.Join(resp.Unresolved, ", "))
	}
	for _, assertion := range resp.Assertions {
		mark := "PASS"
		if !assertion.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  [%s] %s", mark, assertion.Type)
		if assertion.Detail != "" {
			fmt.Printf(": %s", assertion.Detail)
		}
		fmt.Println()
	}
	if len(resp.Body) > 0 {
		fmt.Println(string(resp.Body))
	}
}
