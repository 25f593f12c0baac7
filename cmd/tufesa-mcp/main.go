// ABOUTME: Entry point for the tufesa-mcp tracking server
// ABOUTME: Exposes parcel tracking tools to MCP clients over HTTP and SSE

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/tufesa-labs/tufesa-mcp/internal/config"
	"github.com/tufesa-labs/tufesa-mcp/internal/server"
	"github.com/tufesa-labs/tufesa-mcp/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _         __
 | |_ _   _ / _| ___  ___  __ _       _ __ ___   ___ _ __
 | __| | | | |_ / _ \/ __|/ _' |_____| '_ ' _ \ / __| '_ \
 | |_| |_| |  _|  __/\__ \ (_| |_____| | | | | | (__| |_) |
  \__|\__,_|_|  \___||___/\__,_|     |_| |_| |_|\___| .__/
                                                    |_|
`

// getConfigPath returns the path to the config file.
// Priority: TUFESA_MCP_CONFIG env var > XDG_CONFIG_HOME/tufesa/mcp.yaml > ~/.config/tufesa/mcp.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TUFESA_MCP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "mcp.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "tufesa", "mcp.yaml")
}

// getDataPath returns the path to the data directory.
// Priority: XDG_DATA_HOME/tufesa > ~/.local/share/tufesa
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "tufesa")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: tufesa-mcp <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the MCP server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check server health")
		fmt.Println("  stats    Show lookup statistics")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "stats":
		err = runStats(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Upstream: %s\n", cfg.Upstream.BaseURL)
	if cfg.Database.Path != "" {
		green.Print("    ▶ ")
		fmt.Printf("Journal:  %s\n", cfg.Database.Path)
	}

	fmt.Println()

	logger.Info("starting tufesa-mcp",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"upstream", cfg.Upstream.BaseURL,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runStats prints lookup statistics. It asks the running server first and
// falls back to reading the journal database directly when the server is
// not reachable.
func runStats(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health/stats", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return statsFromJournal(ctx, cfg)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var stats struct {
		Sessions int          `json:"sessions"`
		Lookups  *store.Stats `json:"lookups"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("decoding stats: %w", err)
	}

	fmt.Printf("Live sessions: %d\n", stats.Sessions)
	printLookupStats(stats.Lookups)
	return nil
}

// statsFromJournal reads aggregate and recent lookups straight from SQLite.
func statsFromJournal(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("server not reachable and no database path configured")
	}

	gray := color.New(color.FgHiBlack)
	gray.Println("server not reachable, reading journal directly")

	journal, err := store.NewJournal(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer journal.Close()

	stats, err := journal.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}
	printLookupStats(stats)

	recent, err := journal.Recent(ctx, 10)
	if err != nil {
		return fmt.Errorf("reading recent lookups: %w", err)
	}
	if len(recent) > 0 {
		fmt.Println()
		fmt.Println("Recent lookups:")
		for _, rec := range recent {
			marker := " "
			if rec.Cached {
				marker = "*"
			}
			fmt.Printf("  %s %s  %-12s %s\n",
				marker, rec.CreatedAt.Format("2006-01-02 15:04"), rec.Outcome, rec.Guia)
		}
	}
	return nil
}

func printLookupStats(stats *store.Stats) {
	if stats == nil {
		fmt.Println("Lookup journal: disabled")
		return
	}
	fmt.Printf("Total lookups: %d\n", stats.Total)
	for outcome, count := range stats.ByOutcome {
		fmt.Printf("  %-12s %d\n", outcome, count)
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("tufesa-mcp configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "mcp.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	// Upstream
	fmt.Println("\n--- Upstream Configuration ---")
	baseURL := prompt(reader, "Carrier API base URL", config.DefaultUpstreamBaseURL)
	apiKey := prompt(reader, "Carrier API key (leave empty if none)", "")
	timeout := prompt(reader, "Request timeout", "10s")

	// Cache
	fmt.Println("\n--- Cache Configuration ---")
	enableCache := prompt(reader, "Enable result cache?", "yes")
	cacheEnabled := strings.ToLower(enableCache) == "yes" || strings.ToLower(enableCache) == "y"

	// Journal
	fmt.Println("\n--- Journal Configuration ---")
	enableJournal := prompt(reader, "Record lookups in SQLite?", "yes")
	var dbPath string
	if strings.ToLower(enableJournal) == "yes" || strings.ToLower(enableJournal) == "y" {
		dbPath = prompt(reader, "SQLite database path", defaultDbPath)
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# tufesa-mcp configuration\n")
	cfg.WriteString("# Generated by tufesa-mcp init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("upstream:\n")
	cfg.WriteString(fmt.Sprintf("  base_url: \"%s\"\n", baseURL))
	if apiKey != "" {
		cfg.WriteString(fmt.Sprintf("  api_key: \"%s\"\n", apiKey))
	}
	cfg.WriteString(fmt.Sprintf("  timeout: \"%s\"\n", timeout))
	cfg.WriteString("\n")

	cfg.WriteString("cache:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", cacheEnabled))
	if cacheEnabled {
		cfg.WriteString("  ttl: \"2m\"\n")
		cfg.WriteString("  max_size: 1024\n")
	}
	cfg.WriteString("\n")

	if dbPath != "" {
		cfg.WriteString("database:\n")
		cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
		cfg.WriteString("\n")
	}

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if dbPath != "" {
		dataDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		fmt.Printf("\nData directory: %s\n", dataDir)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  tufesa-mcp serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
