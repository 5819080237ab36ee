package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinsense/clinsense/ai/analytics"
	"github.com/clinsense/clinsense/ai/audit"
	aicontext "github.com/clinsense/clinsense/ai/context"
	"github.com/clinsense/clinsense/ai/core/llm"
	"github.com/clinsense/clinsense/ai/metrics"
	"github.com/clinsense/clinsense/ai/pipeline"
	"github.com/clinsense/clinsense/emr"
	"github.com/clinsense/clinsense/internal/profile"
	"github.com/clinsense/clinsense/internal/version"
	"github.com/clinsense/clinsense/store"
	"github.com/clinsense/clinsense/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "clinsense",
	Short: "Clinical suggestion pipeline: generates, validates and integrates visit suggestions from tiered patient memory.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Ignore a missing .env file; env vars still apply.
		_ = godotenv.Load()
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the suggestion pipeline once for a visit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		visitID, _ := cmd.Flags().GetString("visit")
		userID, _ := cmd.Flags().GetString("user")
		integrate, _ := cmd.Flags().GetBool("integrate")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		if visitID == "" {
			return fmt.Errorf("--visit is required")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		instanceProfile, storeInstance, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		if !instanceProfile.IsAIEnabled() {
			return fmt.Errorf("no LLM API key configured, set CLINSENSE_AI_LLM_API_KEY")
		}
		service, err := llm.NewService(&llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			return err
		}

		exporter := metrics.NewExporter()
		if metricsAddr != "" {
			serveMetrics(ctx, metricsAddr, exporter)
		}

		orchestrator := pipeline.NewOrchestrator(pipeline.Options{
			Providers:       map[string]llm.Service{instanceProfile.LLMProvider: service},
			DefaultProvider: instanceProfile.LLMProvider,
			Assembler:       aicontext.NewAssembler(storeInstance),
			Metrics:         storeInstance,
			AuditEvents:     storeInstance,
			Exporter:        exporter,
		})

		result := orchestrator.Run(ctx, &pipeline.Request{VisitID: visitID, UserID: userID})

		if integrate {
			engine := emr.NewEngine(storeInstance, storeInstance, audit.NewRecorder(storeInstance))
			for _, s := range result.Suggestions {
				merged, err := engine.Integrate(ctx, s, visitID, userID)
				if err != nil {
					slog.Error("integration failed", "suggestion_id", s.ID, "error", err)
					continue
				}
				if merged {
					exporter.ObserveIntegrated()
				}
			}
		}

		return printJSON(result)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the usage metrics summary for a visit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		visitID, _ := cmd.Flags().GetString("visit")
		previousVisitID, _ := cmd.Flags().GetString("previous")
		patientID, _ := cmd.Flags().GetString("patient")
		if visitID == "" {
			return fmt.Errorf("--visit is required")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		_, storeInstance, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		service := analytics.NewService(storeInstance, storeInstance, audit.NewRecorder(storeInstance))

		if previousVisitID != "" {
			metric, err := service.CalculateLongitudinalMetrics(ctx, patientID, visitID, previousVisitID)
			if err != nil {
				return err
			}
			return printJSON(metric)
		}

		summary, err := service.GetMetricsSummaryByVisit(ctx, visitID)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record reviewer feedback on a suggestion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		suggestionID, _ := cmd.Flags().GetString("suggestion")
		visitID, _ := cmd.Flags().GetString("visit")
		userID, _ := cmd.Flags().GetString("user")
		feedbackType, _ := cmd.Flags().GetString("type")
		if suggestionID == "" || feedbackType == "" {
			return fmt.Errorf("--suggestion and --type are required")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		_, storeInstance, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		service := analytics.NewService(storeInstance, storeInstance, audit.NewRecorder(storeInstance))
		row, err := service.TrackFeedback(ctx, &store.UpsertSuggestionFeedback{
			SuggestionID: suggestionID,
			UserID:       userID,
			VisitID:      visitID,
			Type:         store.FeedbackType(feedbackType),
		})
		if err != nil {
			return err
		}
		return printJSON(row)
	},
}

// openStore builds the profile from flags and env, opens the configured
// database driver and runs migrations.
func openStore(ctx context.Context) (*profile.Profile, *store.Store, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, nil, err
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, err
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	return instanceProfile, storeInstance, nil
}

// serveMetrics exposes the Prometheus scrape endpoint for the lifetime of
// the command.
func serveMetrics(ctx context.Context, addr string, exporter *metrics.Exporter) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	generateCmd.Flags().String("visit", "", "visit identifier")
	generateCmd.Flags().String("user", "", "acting user identifier")
	generateCmd.Flags().Bool("integrate", false, "merge valid suggestions into the clinical record")
	generateCmd.Flags().String("metrics-addr", "", "expose Prometheus metrics on this address while running")

	summaryCmd.Flags().String("visit", "", "visit identifier")
	summaryCmd.Flags().String("previous", "", "previous visit identifier for a longitudinal comparison")
	summaryCmd.Flags().String("patient", "", "patient identifier for a longitudinal comparison")

	feedbackCmd.Flags().String("suggestion", "", "suggestion identifier")
	feedbackCmd.Flags().String("visit", "", "visit identifier")
	feedbackCmd.Flags().String("user", "", "acting user identifier")
	feedbackCmd.Flags().String("type", "", "feedback type (useful, irrelevant, incorrect, dangerous)")

	rootCmd.AddCommand(generateCmd, summaryCmd, feedbackCmd)

	viper.SetEnvPrefix("clinsense")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
