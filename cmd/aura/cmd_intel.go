package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/render"
	"github.com/jask/aura/internal/safety"
	"github.com/jask/aura/internal/service"
)

var insightChronotype string

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Run today's intelligence pipeline",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		hints := service.Hints{Chronotype: a.profile.ChronotypeOverride}
		if insightChronotype != "" {
			hints.Chronotype = health.ParseChronotype(insightChronotype)
		}
		return runInsight(ctx, a, os.Stdout, hints)
	}),
}

// runInsight prints the daily report. A report that carries an insight is
// printed even when Run also failed to store it; the error is still returned.
func runInsight(ctx context.Context, a *app, w io.Writer, hints service.Hints) error {
	u, err := a.subject(ctx)
	if err != nil {
		return err
	}
	rep, err := a.intelligence().Run(ctx, u.ID, hints)
	if rep.Insight.Title == "" {
		return err
	}
	if rep.Calibrating {
		fmt.Fprintln(w, render.Readiness(rep.Readiness)+"  (calibrating)")
	} else {
		fmt.Fprintln(w, render.Readiness(rep.Readiness))
	}
	logs, lerr := a.logs.Recent(ctx, u.ID, 1)
	if lerr == nil {
		if line := render.Safety(rep.Safety, safety.Triggered(logs)); line != "" {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w, render.Insight(rep.Insight))
	if rep.NewMemory != nil {
		fmt.Fprintln(w, render.Memory(*rep.NewMemory))
	}
	return err
}

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Generate the weekly briefing",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		svc := &service.BriefingService{
			Provider:  a.provider,
			Logs:      a.logs,
			Memories:  a.memories,
			Briefings: a.briefings,
			Timeout:   a.cfg.LLM.Timeout,
			MinLogs:   a.cfg.Intelligence.BriefingMinLogs,
		}
		b, err := svc.Generate(ctx, u.ID)
		if err != nil {
			return friendly(err)
		}
		fmt.Println(render.Briefing(b))
		return nil
	}),
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and build long-term memory nodes",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		nodes, err := a.memories.ListBySubject(ctx, u.ID)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Println("No memory nodes yet.")
		}
		for _, n := range nodes {
			fmt.Println(render.Memory(n))
		}
		return nil
	}),
}

var memorySynthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Condense recent logs into a memory node",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		logs, err := a.logs.ListBySubject(ctx, u.ID)
		if err != nil {
			return err
		}
		m := &service.MemorySynthesizer{
			Provider: a.provider,
			Memories: a.memories,
			Logger:   a.log,
			Timeout:  a.cfg.LLM.Timeout,
			MinLogs:  a.cfg.Intelligence.MemoryMinLogs,
			Window:   a.cfg.Intelligence.HistoryWindow,
		}
		// explicit requests always add a node, even when others exist
		node, err := m.Synthesize(ctx, u.ID, logs, nil)
		if err != nil {
			return friendly(err)
		}
		if node == nil {
			need := a.cfg.Intelligence.MemoryMinLogs
			if need <= 0 {
				need = llm.MinMemoryLogs
			}
			return friendly(fmt.Errorf("memory synthesis needs %d logs, have %d: %w", need, len(logs), llm.ErrInsufficientHistory))
		}
		fmt.Println(render.Memory(*node))
		return nil
	}),
}

var chronotypeCmd = &cobra.Command{
	Use:   "chronotype",
	Short: "Detect the subject's chronotype from recent logs",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		svc := &service.ChronotypeService{
			Provider: a.provider,
			Logs:     a.logs,
			Users:    a.users,
			Logger:   a.log,
			Timeout:  a.cfg.LLM.Timeout,
			MinLogs:  a.cfg.Intelligence.ChronotypeMinLogs,
		}
		c, err := svc.Detect(ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Chronotype: %s\n", c)
		return nil
	}),
}

var forecastDays int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Predict metric trends for the coming days",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		days := forecastDays
		if days <= 0 {
			days = a.profile.ForecastDays
		}
		svc := &service.ForecastService{Provider: a.provider, Logs: a.logs, Logger: a.log, Timeout: a.cfg.LLM.Timeout}
		fs, err := svc.Forecast(ctx, u.ID, days)
		if err != nil {
			return err
		}
		fmt.Println(render.Forecasts(fs))
		return nil
	}),
}

func init() {
	insightCmd.Flags().StringVar(&insightChronotype, "chronotype", "", "chronotype hint for this run (Lion, Bear, Wolf, Dolphin)")
	forecastCmd.Flags().IntVar(&forecastDays, "days", 0, "forecast horizon in days (default 7)")
	memoryCmd.AddCommand(memorySynthesizeCmd)
}

// friendly turns collaborator sentinels into actionable messages.
func friendly(err error) error {
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		return fmt.Errorf("%w: set GEMINI_API_KEY, run `aura key set`, or use llm.provider = \"offline\"", err)
	case errors.Is(err, llm.ErrInsufficientHistory):
		return fmt.Errorf("%w: keep logging daily check-ins", err)
	}
	return err
}
