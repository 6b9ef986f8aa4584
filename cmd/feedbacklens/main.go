package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbruckner/feedbacklens/internal/analyze"
	"github.com/cbruckner/feedbacklens/internal/collect"
	"github.com/cbruckner/feedbacklens/internal/config"
	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/notify"
	"github.com/cbruckner/feedbacklens/internal/pipeline"
	"github.com/cbruckner/feedbacklens/internal/scheduler"
	"github.com/cbruckner/feedbacklens/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "feedbacklens",
	Short:   "Customer feedback analysis",
	Long:    "FeedbackLens collects customer feedback from support and review channels, scores sentiment and business impact, extracts themes, and composes executive summaries.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(themesCmd)
	rootCmd.AddCommand(prioritiesCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("feedbacklens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/feedbacklens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feedback sources, API tokens, and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.GetToday())
		fmt.Println("Feedback:")
		fmt.Printf("  Total collected: %d\n", stats.TotalFeedback)
		fmt.Printf("  Sentiment scored: %d\n", stats.AnalyzedFeedback)
		fmt.Printf("  Negative: %d\n", stats.NegativeFeedback)
		fmt.Printf("  Open: %d\n", stats.OpenFeedback)
		fmt.Println("\nOutput:")
		fmt.Printf("  Summaries: %d\n", stats.Summaries)
		fmt.Printf("  Theme periods: %d\n", stats.ThemePeriods)

		states, err := db.GetAllSyncStates()
		if err != nil {
			return err
		}
		if len(states) > 0 {
			fmt.Println("\nSources:")
			for _, s := range states {
				last := "never"
				if s.LastSync != nil {
					last = *s.LastSync
				}
				fmt.Printf("  %s: %s (last sync %s)\n", s.Source, s.Status, last)
			}
		}
		return nil
	},
}

// --- sync command ---

var syncDaysBack int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Collect feedback from configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("Syncing feedback from the last %d day(s)...\n", syncDaysBack)

		collector := collect.NewCollector(cfg, db, syncDaysBack)
		result := collector.Collect()

		fmt.Println("\nSync complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New records: %d\n", result.NewRecords)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nRecords by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncDaysBack, "days-back", 7, "How many days of feedback to sync")
}

// --- run command ---

var (
	dryRun      bool
	runDaysBack int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: sync -> fetch -> sentiment -> impact -> themes -> summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, runDaysBack)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(context.Background())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/6: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if dryRun {
			return nil
		}

		if err := sendDigest(db, result.PeriodID); err != nil {
			fmt.Printf("\nTelegram digest failed: %v\n", err)
		}
		fmt.Println("\nPipeline complete! Run 'feedbacklens serve' to browse the results.")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&runDaysBack, "days-back", 7, "Lookback window in days")
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report [period]",
	Short: "Print a period summary (most recent if omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var summary *database.Summary
		if len(args) == 1 {
			summary, err = db.GetSummary(args[0])
		} else {
			var all []database.Summary
			all, err = db.GetAllSummaries()
			if err == nil && len(all) > 0 {
				summary = &all[0]
			}
		}
		if err != nil {
			return err
		}
		if summary == nil {
			fmt.Println("No summary found. Run 'feedbacklens run' first.")
			return nil
		}

		fmt.Println(summary.OverviewMarkdown)
		return nil
	},
}

// --- themes command ---

var themesPeriod string

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Show extracted themes for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		periodID := themesPeriod
		if periodID == "" {
			periods, err := db.GetThemePeriods()
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				fmt.Println("No themes extracted yet. Run 'feedbacklens run' first.")
				return nil
			}
			periodID = periods[0]
		}

		snapshots, err := db.GetThemeSnapshots(periodID)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Printf("No themes stored for %s.\n", periodID)
			return nil
		}

		fmt.Printf("Themes for %s:\n\n", database.FormatPeriodDisplay(periodID))
		for _, t := range snapshots {
			fmt.Printf("  %-30s %3dx  (confidence %.0f%%)\n", t.Name, t.Frequency, t.Confidence*100)
			if len(t.Keywords) > 0 {
				fmt.Printf("      keywords: %v\n", t.Keywords)
			}
		}
		return nil
	},
}

var themesCompareCmd = &cobra.Command{
	Use:   "compare [historical] [current]",
	Short: "Compare themes between two stored periods",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		service := analyze.NewService(db, nil)
		result := service.CompareThemePeriods(args[0], args[1])
		if !result.Success {
			return fmt.Errorf("%s", result.Error)
		}

		ev := result.Evolution
		fmt.Printf("Theme evolution: %s -> %s\n", args[0], args[1])

		if len(ev.Emerging) > 0 {
			fmt.Println("\nEmerging:")
			for _, c := range ev.Emerging {
				fmt.Printf("  %-30s %d -> %d (%+.0f%%)\n", c.Name, c.OldFrequency, c.NewFrequency, c.GrowthRate*100)
			}
		}
		if len(ev.Declining) > 0 {
			fmt.Println("\nDeclining:")
			for _, c := range ev.Declining {
				if c.Disappeared {
					fmt.Printf("  %-30s %d -> gone\n", c.Name, c.OldFrequency)
				} else {
					fmt.Printf("  %-30s %d -> %d (%+.0f%%)\n", c.Name, c.OldFrequency, c.NewFrequency, c.GrowthRate*100)
				}
			}
		}
		if len(ev.Stable) > 0 {
			fmt.Println("\nStable:")
			for _, c := range ev.Stable {
				fmt.Printf("  %-30s %d -> %d\n", c.Name, c.OldFrequency, c.NewFrequency)
			}
		}
		return nil
	},
}

func init() {
	themesCmd.Flags().StringVar(&themesPeriod, "period", "", "Period ID (defaults to most recent)")
	themesCmd.AddCommand(themesCompareCmd)
}

// --- priorities command ---

var (
	prioritiesDaysBack int
	prioritiesLimit    int
	prioritiesPeriod   string
)

var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "Rank recent feedback by business impact",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var start, end time.Time
		if prioritiesPeriod != "" {
			start, end, err = database.PeriodRange(prioritiesPeriod)
			if err != nil {
				return err
			}
		} else {
			end = time.Now().UTC()
			start = end.AddDate(0, 0, -prioritiesDaysBack)
		}
		records, err := db.GetFeedbackInRange(start, end)
		if err != nil {
			return err
		}
		ids := make([]int64, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}

		service := analyze.NewService(db, nil)
		result := service.PrioritizeIssues(ids, nil)
		if !result.Success {
			fmt.Println(result.Error)
			return nil
		}

		n := len(result.Results)
		if prioritiesLimit > 0 && n > prioritiesLimit {
			n = prioritiesLimit
		}
		fmt.Printf("Top %d of %d records by impact:\n\n", n, result.Count)
		for i, item := range result.Results[:n] {
			fmt.Printf("%2d. [%5.1f %s] %s\n", i+1, item.ImpactScore, item.PriorityLevel, item.Title)
			fmt.Printf("      tier=%s sentiment=%s created=%s\n", item.CustomerTier, item.Sentiment, item.CreatedAt)
		}
		return nil
	},
}

func init() {
	prioritiesCmd.Flags().IntVar(&prioritiesDaysBack, "days-back", 30, "Lookback window in days")
	prioritiesCmd.Flags().IntVar(&prioritiesLimit, "limit", 10, "Maximum records to show")
	prioritiesCmd.Flags().StringVar(&prioritiesPeriod, "period", "", "Rank a stored period instead (e.g. 2026-02-01..2026-02-28)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server (and the daily schedule if enabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Schedule.Enabled {
			sched, err := scheduler.New(cfg.Schedule.Timezone)
			if err != nil {
				return err
			}
			err = sched.Schedule(cfg.Schedule.Time, func() {
				log.Println("Scheduled pipeline run starting")
				pipe := pipeline.New(cfg, db, 1)
				result := pipe.Run(context.Background())
				for _, step := range result.Steps {
					if step.Err != nil {
						log.Printf("Step %s failed: %v", step.Name, step.Err)
					}
				}
				if err := sendDigest(db, result.PeriodID); err != nil {
					log.Printf("Telegram digest failed: %v", err)
				}
			})
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			fmt.Printf("Daily pipeline scheduled at %s (%s), next run %s\n",
				cfg.Schedule.Time, cfg.Schedule.Timezone, sched.NextRun().Format("2006-01-02 15:04"))
		}

		fmt.Printf("Starting server at http://localhost:%d\n", servePort)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, servePort)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// sendDigest pushes the period summary to Telegram when configured.
// A nil notifier (telegram disabled or unconfigured) is not an error.
func sendDigest(db *database.DB, periodID string) error {
	notifier, err := notify.NewNotifier(cfg.Telegram)
	if err != nil {
		return err
	}
	if notifier == nil {
		return nil
	}

	summary, err := db.GetSummary(periodID)
	if err != nil {
		return err
	}
	if summary == nil {
		return nil
	}
	return notifier.SendDigest(summary)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "feedbacklens.db")
	return database.Open(dbPath)
}
