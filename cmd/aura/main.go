// Command aura is the CLI for the health-signal intelligence pipeline.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/aura/internal/config"
	"github.com/jask/aura/internal/database"
	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
	"github.com/jask/aura/internal/llm"
	"github.com/jask/aura/internal/logging"
	"github.com/jask/aura/internal/prefs"
	"github.com/jask/aura/internal/secrets"
	"github.com/jask/aura/internal/service"
)

var (
	cfgPath     string
	subjectFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "aura",
	Short:         "Health-signal intelligence from daily check-ins",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $AURA_CONFIG or ~/.config/aura/config.toml)")
	rootCmd.PersistentFlags().StringVar(&subjectFlag, "subject", "", "subject email or id (default: active subject)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(initCmd, logCmd, insightCmd, briefingCmd, memoryCmd, chronotypeCmd, forecastCmd, seedCmd, resetCmd, keyCmd, mcpCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the wired process state shared by commands.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	db       *sql.DB
	provider llm.NarrativeProvider
	profile  prefs.Profile

	users     *repository.UserRepo
	logs      *repository.HealthLogRepo
	memories  *repository.MemoryRepo
	insights  *repository.InsightRepo
	briefings *repository.BriefingRepo
}

func openApp() (*app, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("AURA_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if cfg.Database.Migrations != "" {
		err = database.RunMigrationsFrom(cfg.Database.Path, cfg.Database.Migrations)
	} else {
		err = database.RunMigrations(cfg.Database.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	profile, err := prefs.LoadProfile()
	if err != nil {
		log.Warn("ignoring unreadable profile", zap.Error(err))
	}

	return newApp(cfg, log, db, newProvider(cfg.LLM, log), profile), nil
}

func newApp(cfg config.Config, log *zap.Logger, db *sql.DB, provider llm.NarrativeProvider, profile prefs.Profile) *app {
	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		provider:  provider,
		profile:   profile,
		users:     repository.NewUserRepo(db),
		logs:      repository.NewHealthLogRepo(db),
		memories:  repository.NewMemoryRepo(db),
		insights:  repository.NewInsightRepo(db),
		briefings: repository.NewBriefingRepo(db),
	}
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.db.Close()
}

func newProvider(c config.LLMConfig, log *zap.Logger) llm.NarrativeProvider {
	if strings.EqualFold(c.Provider, "offline") {
		return llm.NewOfflineProvider()
	}
	key := c.ResolveAPIKey(secrets.Default.Get)
	if key == "" {
		log.Debug("no api key configured; narrative synthesis will fall back", zap.String("env", c.APIKeyEnv))
	}
	return llm.NewGeminiProvider(key, c.Model, c.FastModel, c.Timeout)
}

// subject resolves --subject (email or id) or the active profile subject.
func (a *app) subject(ctx context.Context) (health.User, error) {
	ref := strings.TrimSpace(subjectFlag)
	if ref == "" {
		ref = a.profile.ActiveSubject
	}
	if ref == "" {
		return health.User{}, fmt.Errorf("no active subject; run `aura init --name NAME --email EMAIL` or pass --subject")
	}
	var (
		u   *health.User
		err error
	)
	if strings.Contains(ref, "@") {
		u, err = a.users.ByEmail(ctx, strings.ToLower(ref))
	} else {
		u, err = a.users.ByID(ctx, ref)
	}
	if err != nil {
		return health.User{}, err
	}
	if u == nil {
		return health.User{}, fmt.Errorf("subject %q not found", ref)
	}
	return *u, nil
}

func (a *app) orchestrator() *service.Orchestrator {
	return &service.Orchestrator{
		Provider:      a.provider,
		Logger:        a.log,
		Timeout:       a.cfg.LLM.Timeout,
		HistoryWindow: a.cfg.Intelligence.HistoryWindow,
	}
}

func (a *app) intelligence() *service.IntelligenceService {
	return &service.IntelligenceService{
		Orchestrator: a.orchestrator(),
		Memory: &service.MemorySynthesizer{
			Provider: a.provider,
			Memories: a.memories,
			Logger:   a.log,
			Timeout:  a.cfg.LLM.Timeout,
			MinLogs:  a.cfg.Intelligence.MemoryMinLogs,
			Window:   a.cfg.Intelligence.HistoryWindow,
		},
		Users:           a.users,
		Logs:            a.logs,
		Memories:        a.memories,
		Insights:        a.insights,
		Logger:          a.log,
		PersistInsights: a.cfg.Intelligence.PersistInsights,
	}
}

// withApp opens the app for the duration of fn.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}
