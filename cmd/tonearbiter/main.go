// Command tonearbiter is the interactive entry point for the Tonearbiter
// sentiment-arbitrating chat agent.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/chat"
	"github.com/kvasirlabs/tonearbiter/internal/config"
	"github.com/kvasirlabs/tonearbiter/internal/conversation"
	"github.com/kvasirlabs/tonearbiter/internal/health"
	"github.com/kvasirlabs/tonearbiter/internal/observe"
	"github.com/kvasirlabs/tonearbiter/internal/resilience"
	"github.com/kvasirlabs/tonearbiter/internal/responder"
	"github.com/kvasirlabs/tonearbiter/internal/topic"
	"github.com/kvasirlabs/tonearbiter/internal/trajectory"
	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
	anyllmcls "github.com/kvasirlabs/tonearbiter/pkg/classifier/anyllm"
	cardiffcls "github.com/kvasirlabs/tonearbiter/pkg/classifier/cardiff"
	mockcls "github.com/kvasirlabs/tonearbiter/pkg/classifier/mock"
	openaicls "github.com/kvasirlabs/tonearbiter/pkg/classifier/openai"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "tonearbiter: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "tonearbiter: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := &slog.LevelVar{}
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("tonearbiter starting",
		"version", version,
		"config", *configPath,
		"classifier", cfg.Classifier.Name,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Classifier registry ───────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinClassifiers(reg)

	cls, err := buildClassifier(cfg, reg)
	if err != nil {
		slog.Error("failed to build classifier", "err", err)
		return 1
	}

	// ── Pipeline wiring ───────────────────────────────────────────────────────
	engine := arbiter.New(cls,
		arbiter.WithMetrics(metrics),
		arbiter.WithProviderName(cfg.Classifier.Name),
	)

	var topicOpts []topic.Option
	if cfg.Chat.Topics.FuzzyMatching {
		topicOpts = append(topicOpts, topic.WithFuzzyMatching(cfg.Chat.Topics.FuzzyThreshold))
	}
	topics := topic.NewExtractor(topicOpts...)

	selOpts := []responder.Option{responder.WithMetrics(metrics)}
	if cfg.Chat.RandomSeed != nil {
		selOpts = append(selOpts, responder.WithRand(rand.New(rand.NewSource(*cfg.Chat.RandomSeed))))
	}
	selector := responder.New(topics, selOpts...)

	var journal *conversation.Journal
	if cfg.Chat.JournalPath != "" {
		journal = conversation.NewJournal(cfg.Chat.JournalPath)
	}

	manager := chat.NewManager(chat.ManagerConfig{
		Engine:   engine,
		Selector: selector,
		Analyzer: trajectory.New(engine, trajectory.WithMetrics(metrics)),
		Journal:  journal,
		DataDir:  cfg.Chat.DataDir,
		Metrics:  metrics,
	})

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.ClassifierChanged || d.ChatChanged {
			slog.Warn("classifier or chat configuration changed on disk; restart to apply")
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	// ── Metrics server + chat loop ────────────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.MetricsAddr != "" {
		srv := metricsServer(cfg.Server.MetricsAddr, cls)
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.Server.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Leaving the chat loop ends the process; cancel the root context so
		// the metrics server shuts down too.
		defer stop()
		return chatLoop(ctx, manager)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Classifier wiring ─────────────────────────────────────────────────────────

// registerBuiltinClassifiers wires all built-in classifier factories into reg.
func registerBuiltinClassifiers(reg *config.Registry) {
	reg.RegisterClassifier("openai", func(entry config.ProviderEntry) (classifier.Provider, error) {
		var opts []openaicls.Option
		if entry.BaseURL != "" {
			opts = append(opts, openaicls.WithBaseURL(entry.BaseURL))
		}
		return openaicls.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterClassifier("anyllm", func(entry config.ProviderEntry) (classifier.Provider, error) {
		providerName := optString(entry.Options, "provider")
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllmcls.New(providerName, entry.Model, opts...)
	})

	reg.RegisterClassifier("cardiff", func(entry config.ProviderEntry) (classifier.Provider, error) {
		return cardiffcls.New(entry.BaseURL)
	})

	// mock always answers neutral; useful for offline smoke runs.
	reg.RegisterClassifier("mock", func(config.ProviderEntry) (classifier.Provider, error) {
		return &mockcls.Provider{
			ClassifyResult: classifier.Result{
				SentimentLabel:      classifier.SentimentNeutral,
				SentimentConfidence: 1.0,
			},
		}, nil
	})
}

// buildClassifier instantiates the primary classifier and, when fallbacks are
// configured, wraps everything in a circuit-breaking failover group.
func buildClassifier(cfg *config.Config, reg *config.Registry) (classifier.Provider, error) {
	primary, err := reg.CreateClassifier(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("create classifier %q: %w", cfg.Classifier.Name, err)
	}
	slog.Info("classifier created", "name", cfg.Classifier.Name, "model", cfg.Classifier.Model)

	if len(cfg.ClassifierFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewClassifierFallback(primary, cfg.Classifier.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.ClassifierFallbacks {
		fb, err := reg.CreateClassifier(entry)
		if err != nil {
			return nil, fmt.Errorf("create fallback classifier %q: %w", entry.Name, err)
		}
		group.AddFallback(entry.Name, fb)
		slog.Info("fallback classifier created", "name", entry.Name, "model", entry.Model)
	}
	return group, nil
}

// metricsServer builds the HTTP server exposing /metrics, /healthz and /readyz.
func metricsServer(addr string, cls classifier.Provider) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	h := health.New(health.Checker{
		Name: "classifier",
		Check: func(context.Context) error {
			if cls == nil {
				return errors.New("classifier not configured")
			}
			return nil
		},
	})
	h.Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Chat loop ─────────────────────────────────────────────────────────────────

// chatLoop runs the interactive conversation on stdin/stdout until the
// context is cancelled, stdin closes, or the user quits.
func chatLoop(ctx context.Context, manager *chat.Manager) error {
	info, err := manager.Start(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Tonearbiter ready. Type a message, or /summary, /mood, /export, /quit.")
	slog.Debug("chat loop started", "conversation_id", info.ConversationID)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			finish(manager)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				finish(manager)
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				return nil
			}
			if done := handleLine(ctx, manager, line); done {
				finish(manager)
				return nil
			}
		}
	}
}

// handleLine processes one input line and reports whether the loop should end.
func handleLine(ctx context.Context, manager *chat.Manager, line string) bool {
	text := strings.TrimSpace(line)
	if text == "" {
		return false
	}

	switch strings.ToLower(text) {
	case "/quit", "/exit":
		return true

	case "/summary":
		sum, err := manager.Summary(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Printf("Overall: %s (%.3f) over %d message(s), trajectory %s\n",
			sum.Label, sum.Compound, sum.MessageCount, sum.Trajectory)
		fmt.Println(sum.Text)
		return false

	case "/mood":
		shift, err := manager.MoodShift()
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println(shift)
		return false

	case "/export":
		data, err := manager.Export()
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		fmt.Println(string(data))
		return false
	}

	ex, err := manager.Submit(ctx, text)
	if err != nil {
		if errors.Is(err, arbiter.ErrClassifierUnavailable) {
			fmt.Println("The sentiment service is unavailable; please try again.")
			return false
		}
		fmt.Println("error:", err)
		return false
	}

	marker := ""
	if ex.Verdict.IronyDetected {
		marker = " [irony]"
	}
	fmt.Printf("[%s %.3f%s] %s\n", ex.Verdict.Label, ex.Verdict.Compound, marker, ex.Reply)
	return false
}

// finish ends the active conversation and prints the closing roll-up.
func finish(manager *chat.Manager) {
	if !manager.IsActive() {
		return
	}
	res, err := manager.End(context.Background())
	if err != nil {
		slog.Warn("end conversation", "err", err)
		return
	}
	fmt.Printf("\nConversation summary: %s (%.3f) over %d message(s)\n",
		res.Summary.Label, res.Summary.Compound, res.Summary.MessageCount)
	fmt.Println(res.Summary.Text)
	fmt.Println(res.MoodShift)
	if res.ExportPath != "" {
		fmt.Println("Transcript saved to", res.ExportPath)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       Tonearbiter — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Classifier", classifierSummary(cfg.Classifier))
	printField("Fuzzy topics", onOff(cfg.Chat.Topics.FuzzyMatching))
	printField("Journal", orDisabled(cfg.Chat.JournalPath))
	printField("Data dir", orDisabled(cfg.Chat.DataDir))
	printField("Metrics addr", orDisabled(cfg.Server.MetricsAddr))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", name, value)
}

func classifierSummary(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "(not configured)"
	}
	if entry.Model != "" {
		return entry.Name + " / " + entry.Model
	}
	return entry.Name
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optString extracts a string value from an Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}
