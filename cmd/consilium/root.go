package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"consilium/internal/agent"
	"consilium/internal/config"
	"consilium/internal/corpus"
	"consilium/internal/guardian"
	"consilium/internal/llm"
	"consilium/internal/logging"
	"consilium/internal/pipeline"
)

var (
	cfgPath string
	modeArg string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "consilium <codebase-path>",
	Short: "consilium - multi-agent debate and synthesis over a codebase",
	Long: `consilium coordinates several independent model agents through a
debate-and-revision protocol over a codebase and produces a single
synthesized report.

The run starts with a short interview: the project manager agent asks
clarifying questions, you answer them (finish with a line containing only
DONE), and the answers are condensed into the run objective.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logging.Init(debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "consilium.yaml", "path to the configuration file")
	rootCmd.Flags().StringVar(&modeArg, "mode", "audit", "analysis mode: audit or design")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose debug logging")
}

func runAnalysis(cmd *cobra.Command, codebasePath string) error {
	ctx := cmd.Context()
	log := logging.L()

	mode, err := agent.ParseMode(modeArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	text, err := corpus.ReadCodebase(codebasePath)
	if err != nil {
		return err
	}
	log.Info("codebase loaded",
		zap.String("path", codebasePath), zap.Int("bytes", len(text)))

	prompts := agent.DefaultPrompts()
	specialists, err := config.LoadSpecialistPrompts(cfg.SpecialistPromptDir)
	if err != nil {
		return err
	}
	for role, prompt := range specialists {
		prompts.Specialists[role] = prompt
	}

	gateway := llm.NewGateway(llm.Credentials{
		OpenAIAPIKey:  cfg.Providers.OpenAI.APIKey,
		OpenAIBaseURL: cfg.Providers.OpenAI.BaseURL,
		GeminiAPIKey:  cfg.Providers.Gemini.APIKey,
		Timeout:       cfg.Timeout(),
	}, logging.Named("llm"))
	dispatcher := llm.NewDispatcher(gateway, logging.Named("dispatcher"))
	guard := guardian.New(dispatcher, cfg.Models.Fallback, logging.Named("guardian"))

	// Interview: questions, answers, objective.
	pm := agent.NewProjectManager(cfg.Models.ProjectManager, cfg.Models.Fallback, dispatcher, prompts)
	questions, err := pm.GenerateQuestions(ctx, text, mode)
	if err != nil {
		return fmt.Errorf("failed to generate interview questions: %w", err)
	}

	fmt.Println("\nPlease answer the following questions. Finish with a line containing only DONE.")
	fmt.Println()
	fmt.Println(questions)
	fmt.Println()

	answers, err := collectAnswers(cmd.InOrStdin())
	if err != nil {
		return err
	}

	objective, err := pm.SynthesizeObjective(ctx, questions, answers, text)
	if err != nil {
		return fmt.Errorf("failed to synthesize objective: %w", err)
	}
	fmt.Println("\nObjective:")
	fmt.Println(objective)
	fmt.Println()

	pipe := pipeline.New(cfg, prompts, dispatcher, guard, logging.Named("pipeline"))
	var report string
	if mode == agent.ModeDesign {
		report = pipe.RunDesignModeAnalysis(ctx, text, objective)
	} else {
		report = pipe.RunMultiAgentAnalysis(ctx, text, objective)
	}

	fmt.Println(report)
	return nil
}

// collectAnswers reads free-form answer lines until a line containing only
// DONE (or end of input).
func collectAnswers(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "DONE" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read answers: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}
