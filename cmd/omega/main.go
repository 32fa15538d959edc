package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/autoforge/autoforge/internal/config"
	"github.com/autoforge/autoforge/internal/llm/openai"
	"github.com/autoforge/autoforge/internal/orchestrator"
	"github.com/autoforge/autoforge/internal/scanner"
	"github.com/autoforge/autoforge/internal/tool"
	"github.com/autoforge/autoforge/internal/tool/builtin"
)

// Exit codes (§6).
const (
	exitSuccess     = 0
	exitFailed      = 1
	exitBadArgument = 2
	exitNotFound    = 3
	exitCircuitOpen = 4
	exitCancelled   = 5
)

func main() {
	config.LoadEnv()
	os.Exit(run())
}

func run() int {
	var (
		autoMode   bool
		headless   bool
		confThresh float64
	)

	cfg := config.Load()
	exitCode := exitSuccess

	root := &cobra.Command{
		Use:          "omega",
		Short:        "autoforge: autonomous multi-agent project orchestrator",
		SilenceUsage: true,
	}

	submit := &cobra.Command{
		Use:   "submit [request text]",
		Short: "submit a natural-language request to the orchestrator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			orc, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			threshold := confThresh
			if threshold == 0 {
				threshold = cfg.ConfidenceThreshold
			}

			opts := orchestrator.SubmitOptions{
				AutoMode: autoMode || cfg.AutoApprove,
				Headless: headless,
				HighConf: orchestrator.DefaultHighConf,
				MidConf:  threshold,
			}
			if !headless {
				opts.ManualApprove = promptManualApproval
			}

			out, err := orc.Submit(context.Background(), text, opts)
			if err != nil {
				return err
			}

			printRun(out)
			switch out.FinalStatus {
			case orchestrator.StatusFailed:
				exitCode = exitFailed
			case orchestrator.StatusRejected:
				exitCode = exitCancelled
			}
			return nil
		},
	}
	submit.Flags().BoolVar(&autoMode, "auto", false, "auto-approve mid-confidence destructive steps")
	submit.Flags().BoolVar(&headless, "headless", false, "never prompt for manual approval; collapse request_manual to reject")
	submit.Flags().Float64Var(&confThresh, "confidence-threshold", 0, "override MID_CONF for the confidence gate")
	root.AddCommand(submit)

	rescan := &cobra.Command{
		Use:   "rescan",
		Short: "re-run the project scanner and long-chain-of-thought analyzer",
		RunE: func(cmd *cobra.Command, args []string) error {
			orc, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			if err := orc.Rescan(); err != nil {
				return err
			}
			r := orc.Report()
			fmt.Printf("architecture: %s (confidence %.2f, %d step(s), %d reflection(s), %d backtrack(s))\n",
				r.ArchitectureHypothesis, r.AvgConfidence, r.StepCount, r.ReflectionCount, r.BacktrackCount)
			return nil
		},
	}
	root.AddCommand(rescan)

	rollback := &cobra.Command{
		Use:   "rollback [run_id]",
		Short: "restore every artifact a run produced to its pre-write backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orc, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			res, err := orc.Rollback(args[0])
			if err != nil {
				exitCode = exitNotFound
				return nil
			}
			fmt.Printf("restored %d path(s), removed %d path(s), marked %d entries superseded\n",
				len(res.PathsRestored), len(res.PathsRemoved), res.EntriesMarked)
			return nil
		},
	}
	root.AddCommand(rollback)

	status := &cobra.Command{
		Use:   "status",
		Short: "print the last committed orchestrator snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			orc, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}
			s := orc.Status()
			fmt.Printf("pipeline position: %d\nlast confidence: %.2f\nartifact count: %d\ncircuit breaker: %s\n",
				s.CurrentPipelinePosition, s.LastConfidence, s.ArtifactCount, s.CircuitBreakerState)
			if s.CircuitBreakerState == "open" {
				exitCode = exitCircuitOpen
			}
			return nil
		},
	}
	root.AddCommand(status)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitBadArgument
	}
	return exitCode
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func promptManualApproval(reason string) bool {
	fmt.Printf("manual approval requested: %s\nproceed? [y/N] ", reason)
	var resp string
	_, _ = fmt.Scanln(&resp)
	return resp == "y" || resp == "Y"
}

func printRun(r orchestrator.PipelineRun) {
	fmt.Printf("run %s: %s (%d step(s))\n", r.RunID, r.FinalStatus, len(r.StepResults))
	for _, s := range r.StepResults {
		fmt.Printf("  [%s] confidence=%.2f decision=%s (%s) artifacts=%v\n",
			s.AgentID, s.Confidence, s.GateDecision, s.GateReason, s.ArtifactsProduced)
	}
}

func buildOrchestrator(cfg config.Config) (*orchestrator.Orchestrator, error) {
	provider, err := openai.NewClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("initialize LLM client: %w", err)
	}

	registry := buildToolRegistry(cfg)

	return orchestrator.New(cfg.WorkspaceRoot, orchestrator.Config{
		HighConf:           orchestrator.DefaultHighConf,
		MidConf:            cfg.ConfidenceThreshold,
		MaxSteps:           cfg.MaxSteps,
		ScanDepth:          scanner.Shallow,
		RateLimitPerMinute: tool.DefaultRateLimit,
		HealingMaxAttempts: cfg.HealingMaxAttempts,
	}, provider, registry, cfg.AuditLogPath)
}

func buildToolRegistry(cfg config.Config) *tool.Registry {
	reg := tool.NewRegistry()
	reg.Register(builtin.NewFileReadTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileWriteTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileListTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileFindTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileGrepTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileOpenTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileMoveTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFileDeleteTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewFilePatchTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewGitInfoTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewHTTPRequestTool(false))
	reg.Register(builtin.NewPkgInstallTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewRunTestsTool(cfg.WorkspaceRoot))
	reg.Register(builtin.NewShellTool(cfg.WorkspaceRoot, cfg.ShellEnabled))
	reg.Register(builtin.NewTimeTool())
	reg.Register(builtin.NewEnvReadTool())
	reg.Register(builtin.NewMkdirTool(cfg.WorkspaceRoot))

	if err := reg.InitAll(context.Background()); err != nil {
		log.Printf("[tool] warning: InitAll: %v", err)
	}
	return reg
}
