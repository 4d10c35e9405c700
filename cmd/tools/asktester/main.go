package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/askbot/backend/internal/config"
	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/service/answer"
	"github.com/zhouzirui/askbot/backend/internal/service/provider"
	"github.com/zhouzirui/askbot/backend/internal/service/resolver"
)

var (
	flagTimeout   time.Duration
	flagChunkSize int
	flagJSON      bool
	flagVerbose   bool
)

// rootCmd 对真实上游执行一次问答，便于手动验证各条回退链
var rootCmd = &cobra.Command{
	Use:   "asktester [query]",
	Short: "Answer a single query against the live upstream providers",
	Long: `Classify a query, walk its provider chain and print the chunked reply.

Examples:
  asktester "where is Paris"
  asktester --json "tell me a joke"
  asktester classify "I need some motivation"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// classifyCmd 只做意图识别，不访问网络
var classifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Print the intent a query is routed to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		in := intent.NewClassifier(cfg.Chat.LocationKeywords).Classify(query)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", in, strings.Join(providerNames(in), " -> "))
		return nil
	},
}

func init() {
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-provider timeout (default from PROVIDER_TIMEOUT)")
	rootCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "chunk size in characters (default from CHUNK_SIZE)")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print the reply as JSON")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log provider attempts to stderr")
	rootCmd.AddCommand(classifyCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env loaded, using system environment: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagTimeout > 0 {
		cfg.Provider.Timeout = flagTimeout
	}
	if flagChunkSize > 0 {
		cfg.Chat.ChunkSize = flagChunkSize
	}

	level := "error"
	if flagVerbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	adapters := provider.NewSet(cfg.Provider.Endpoints, provider.Options{
		Client:    &http.Client{},
		Timeout:   cfg.Provider.Timeout,
		UserAgent: cfg.Provider.UserAgent,
		Logger:    logger,
	})
	res, err := resolver.New(resolver.DefaultChains(), adapters, logger)
	if err != nil {
		return err
	}
	svc := answer.NewService(intent.NewClassifier(cfg.Chat.LocationKeywords), res, cfg.Chat.ChunkSize, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reply := svc.SubmitQuery(ctx, strings.Join(args, " "))

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}

	fmt.Fprintf(out, "intent:   %s\n", reply.Intent)
	fmt.Fprintf(out, "provider: %s\n", orNone(string(reply.Provider)))
	for _, a := range reply.Attempts {
		fmt.Fprintf(out, "  tried %-16s %s\n", a.Provider, a.Status)
	}
	for i, c := range reply.Chunks {
		fmt.Fprintf(out, "--- chunk %d/%d (%d chars)\n%s\n", i+1, len(reply.Chunks), len([]rune(c)), c)
	}
	return nil
}

func providerNames(in intent.Intent) []string {
	ids := resolver.DefaultChains().Providers(in)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, string(id))
	}
	return names
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
