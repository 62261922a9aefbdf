package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"query-log-analyzer/pkg/aggregate"
	"query-log-analyzer/pkg/explain"
	"query-log-analyzer/pkg/records"
	"query-log-analyzer/pkg/report"
	"query-log-analyzer/pkg/store"
	"query-log-analyzer/pkg/template"

	"github.com/lmittmann/tint"
)

type Config struct {
	InputFile    string
	OutputFile   string
	DBPath       string
	KeywordsFile string
	ExplainDSN   string
	Notion       bool
	Top          int
	Verbose      bool
}

func main() {
	config := parseFlags()

	logLevel := slog.LevelInfo
	if config.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if config.InputFile == "" {
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\nError: -input is required\n")
		os.Exit(1)
	}

	if err := run(config); err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	var config Config

	flag.StringVar(&config.InputFile, "input", "", "Path to the JSON file of recorded query executions (required)")
	flag.StringVar(&config.OutputFile, "output", "", "Report output file (optional, defaults to stdout)")
	flag.StringVar(&config.DBPath, "db", "", "SQLite database to persist the run (optional)")
	flag.StringVar(&config.KeywordsFile, "keywords", "", "YAML file with extra reserved keywords (optional)")
	flag.StringVar(&config.ExplainDSN, "explain", "", "Postgres connection string for EXPLAIN of top valued queries (optional)")
	flag.BoolVar(&config.Notion, "notion", false, "Export top template groups to Notion (needs NOTION_API_KEY and NOTION_DATABASE_ID)")
	flag.IntVar(&config.Top, "top", 10, "Number of groups to show per section")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -input <records.json> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Group recorded query executions by statement and by normalized template,\n")
		fmt.Fprintf(os.Stderr, "and report per-group performance summaries sorted by total elapsed time.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return config
}

func run(config Config) error {
	templaterOpts := []template.Option{}
	if config.KeywordsFile != "" {
		keywords, err := template.LoadKeywords(config.KeywordsFile)
		if err != nil {
			return err
		}
		templaterOpts = append(templaterOpts, template.WithKeywords(keywords))
	}
	templater := template.New(templaterOpts...)

	recs, err := records.LoadFile(config.InputFile)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no processable records in %s", config.InputFile)
	}
	slog.Info("records loaded", "file", config.InputFile, "count", len(recs))

	analysis := aggregate.Analyze(recs, templater)

	output := report.Generate(config.InputFile, analysis, config.Top)
	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("report written", "file", config.OutputFile)
	} else {
		fmt.Print(output)
	}

	if config.DBPath != "" {
		db, err := store.NewStore(config.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runID, err := db.SaveAnalysis(config.InputFile, analysis)
		if err != nil {
			return err
		}
		slog.Info("run persisted", "db", config.DBPath, "run_id", runID)
	}

	if config.ExplainDSN != "" {
		explainTopQueries(config, analysis)
	}

	if config.Notion {
		apiKey := os.Getenv("NOTION_API_KEY")
		databaseID := os.Getenv("NOTION_DATABASE_ID")
		if apiKey == "" || databaseID == "" {
			return fmt.Errorf("notion export requires NOTION_API_KEY and NOTION_DATABASE_ID")
		}
		pageURL, err := report.ExportToNotion(apiKey, databaseID, config.InputFile, analysis, config.Top)
		if err != nil {
			return err
		}
		slog.Info("exported to Notion", "url", pageURL)
	}

	return nil
}

// explainTopQueries runs EXPLAIN for the slowest valued statement
// groups. Valued statements have their placeholders substituted, so
// they can be executed as-is. Failures are logged, never fatal.
func explainTopQueries(config Config, analysis aggregate.Analysis) {
	summaries := analysis.Summaries(aggregate.ModeValued, aggregate.GroupingStatement)
	limit := config.Top
	if limit <= 0 || limit > len(summaries) {
		limit = len(summaries)
	}

	for i := 0; i < limit; i++ {
		sum := summaries[i]
		resp := explain.Explain(explain.Request{
			Query:            sum.Statement,
			ConnectionString: config.ExplainDSN,
		})
		if resp.Error != "" {
			slog.Warn("EXPLAIN failed", "rank", i+1, "error", resp.Error)
			continue
		}
		fmt.Printf("\nEXPLAIN #%d (%.3fs total):\n%s\n%s\n", i+1, sum.TotalElapsedSeconds, sum.Statement, resp.PlanText)
	}
}
