package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/aura/internal/database"
	"github.com/jask/aura/internal/prefs"
	"github.com/jask/aura/internal/secrets"
	"github.com/jask/aura/internal/server"
	"github.com/jask/aura/internal/service"
	"github.com/jask/aura/internal/testdata"
)

var initName, initEmail string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Register a subject and make it active",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := database.EnsureSubject(ctx, a.db, initName, initEmail)
		if err != nil {
			return err
		}
		a.profile.ActiveSubject = u.ID
		a.profile.ActiveEmail = u.Email
		if err := prefs.SaveProfile(a.profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		fmt.Printf("Active subject: %s <%s> (%s)\n", u.Name, u.Email, u.ID)
		return nil
	}),
}

var seedDays int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert synthetic check-ins for demos",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		n, err := testdata.Seed(ctx, testdata.Repos{Logs: a.logs}, u.ID, seedDays)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Printf("Seeded %d days for %s.\n", n, u.Name)
		return nil
	}),
}

var (
	resetAll bool
	resetYes bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the active subject's data (or everything with --all)",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		svc := &service.MaintenanceService{DB: a.db}
		if resetAll {
			if !confirm("Delete ALL subjects and data?") {
				return errors.New("aborted")
			}
			return svc.Reset(ctx)
		}
		u, err := a.subject(ctx)
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Delete all logs, memories, insights and briefings of %s?", u.Email)) {
			return errors.New("aborted")
		}
		if err := svc.ClearSubjectData(ctx, u.ID); err != nil {
			return err
		}
		fmt.Println("Cleared.")
		return nil
	}),
}

func confirm(prompt string) bool {
	if resetYes {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

const keyProvider = "gemini"

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored provider API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the API key (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Print("API key: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			key = line
		}
		if err := secrets.Default.Put(keyProvider, key); err != nil {
			return err
		}
		fmt.Println("Key stored.")
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Default.Delete(keyProvider); err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return err
		}
		fmt.Println("Key removed.")
		return nil
	},
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which provider keys are stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := secrets.Default.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No keys stored.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-10s updated %s\n", e.Provider, e.Updated.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools over stdio or HTTP",
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		tools := &server.Tools{
			Intelligence: a.intelligence(),
			Logs:         a.logs,
			Insights:     a.insights,
			Subject:      a.profile.ActiveSubject,
		}
		if u, err := a.subject(ctx); err == nil {
			tools.Subject = u.ID
		}
		srv := server.New(tools)

		switch mcpTransport {
		case "stdio":
			a.log.Info("mcp server starting", zap.String("transport", "stdio"))
			return srv.Run(ctx, &mcp.StdioTransport{})
		case "http":
			handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
			hs := &http.Server{Addr: mcpAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()
			a.log.Info("mcp server listening", zap.String("transport", "http"), zap.String("addr", mcpAddr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		return fmt.Errorf("unknown transport %q (use stdio or http)", mcpTransport)
	}),
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "display name")
	initCmd.Flags().StringVar(&initEmail, "email", "", "email address, used as the stable subject key")
	_ = initCmd.MarkFlagRequired("email")

	seedCmd.Flags().IntVar(&seedDays, "days", 21, "number of days to generate")

	resetCmd.Flags().BoolVar(&resetAll, "all", false, "delete every subject, not just the active one")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip confirmation")

	keyCmd.AddCommand(keySetCmd, keyDeleteCmd, keyListCmd)

	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "stdio or http")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8787", "listen address for the http transport")
}
