// Command rlm runs a Recursive Language Model agent on a task.
//
//	rlm "What is the 10th Fibonacci number?"
//	rlm --model anthropic/claude-sonnet-4-5 --max-depth 2 "..."
//
// Without a task it runs the Fibonacci demo.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/martinemde/rlm/internal/config"
	"github.com/martinemde/rlm/llm"
	"github.com/martinemde/rlm/rlm"
)

const defaultTask = "Calculate the 10th Fibonacci number. Then, use that number to calculate its square root."

func main() {
	// A missing .env file is fine; the environment is used as-is.
	_ = godotenv.Load()

	if err := rootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	model         string
	maxIterations int
	maxDepth      int
	quiet         bool
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "rlm [task...]",
		Short:         "Solve a task with a Recursive Language Model agent",
		Long:          "rlm asks a language model to solve a task by writing JavaScript that runs in a persistent sandbox.\nScripts can call rlm.completion(\"sub-task\") to solve sub-problems recursively.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				fmt.Fprintf(stderr, "Error loading config: %s\n", err)
				return err
			}

			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				task = defaultTask
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, task, opts.quiet, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("RLM_CONFIG"), "path to a YAML config file")
	flags.StringVar(&opts.model, "model", "", "model as provider/name, e.g. ollama/llama3")
	flags.IntVar(&opts.maxIterations, "max-iterations", 0, "iteration budget per run")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "maximum delegation depth (0 = unlimited)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "print only the final result")
	return cmd
}

// loadConfig applies command line flags on top of the file and environment.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = opts.model
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = opts.maxIterations
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = opts.maxDepth
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, task string, quiet bool, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	client, err := newClient(cfg, logger)
	if err != nil {
		return reportError(stderr, err)
	}
	defer client.Close()

	agentCfg := cfg.AgentConfig()
	agent := rlm.New(client, &agentCfg)
	agent.SetLogger(logger)

	bold := lipgloss.NewStyle().Bold(true)
	faint := lipgloss.NewStyle().Faint(true)
	if !quiet {
		fmt.Fprintf(stdout, "%s %s\n", bold.Render("Starting RLM with model:"), cfg.Model)
		fmt.Fprintf(stdout, "%s %s\n\n", lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render("User Query:"), task)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if quiet {
			for range agent.Events() {
			}
			return
		}
		newEventRenderer(stdout, agentCfg.MaxIterations).Run(agent.Events())
	}()

	result, err := agent.Completion(ctx, task)
	agent.Close()
	<-done

	if err != nil {
		return reportError(stderr, err)
	}

	if quiet {
		fmt.Fprintln(stdout, result.String())
		return nil
	}
	fmt.Fprintf(stdout, "\n%s %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true).Render("Final Result:"), result.String())
	if !result.Answered() {
		fmt.Fprintln(stdout, faint.Render(fmt.Sprintf("No final answer after %d iterations.", result.Iterations)))
	}
	return nil
}

func newClient(cfg config.Config, logger *slog.Logger) (*llm.Client, error) {
	provider, model := llm.ParseModel(cfg.Model)

	opts := []llm.GollmAdapterOption{llm.WithModel(model), llm.WithTemperature(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}
	adapter, err := llm.NewGollmAdapter(provider, "", opts...)
	if err != nil {
		return nil, err
	}

	policy := cfg.RetryPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("retrying completion", "attempt", attempt, "delay", delay, "error", err)
	}
	return llm.NewClient(
		llm.WithProvider(provider, adapter),
		llm.WithDefaultProvider(provider),
		llm.WithMiddleware(llm.RetryMiddleware(policy), llm.LoggingMiddleware(logger)),
	), nil
}

func reportError(stderr io.Writer, err error) error {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	faint := lipgloss.NewStyle().Faint(true)
	fmt.Fprintf(stderr, "\n%s %s\n", red.Render("Error:"), err)

	var network *llm.NetworkError
	var auth *llm.AuthenticationError
	switch {
	case errors.As(err, &network):
		fmt.Fprintln(stderr, faint.Render("Tip: if you are using Ollama, make sure `ollama serve` is running and the model is pulled."))
	case errors.As(err, &auth):
		fmt.Fprintln(stderr, faint.Render("Tip: check the API key for your provider (e.g. OPENAI_API_KEY, ANTHROPIC_API_KEY)."))
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, faint.Render("Interrupted."))
	}
	return err
}
