package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gocolly/colly/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openswoop/uafresult/pkg/config"
	"github.com/openswoop/uafresult/pkg/logging"
	"github.com/openswoop/uafresult/pkg/scrape"
)

var (
	v       = viper.New()
	cfgFile string
	cfg     config.Config
	logger  = slog.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uafresult",
	Short: "A tool for computing GPA and CGPA from UAF result pages",
	Long: `Fetches a student's published result from the UAF LMS by registration
number (e.g. 2019-ag-1234), groups the courses by semester and computes
each semester's GPA along with the cumulative CGPA. Results can be printed
as JSON, YAML, CSV or a spreadsheet, kept in a local SQLite database or
sent to BigQuery.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)
		if err := config.Init(v, cfgFile); err != nil {
			return err
		}
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(os.Stderr, cfg.Log)
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", slog.String("path", used))
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./uafresult.yaml or ~/.config/uafresult/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("db", "", "SQLite database file (default: user cache dir)")

	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("database.path", flags.Lookup("db"))
}

// bindFetchFlags adds the flags shared by every command that talks to the
// result site.
func bindFetchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("backend", config.BackendHTTP, "how to fetch the result page: http or browser")
	flags.Int("parallel", 2, "registration numbers fetched at once")
	flags.Float64("rate", 1, "maximum requests per second against the result site (0 = unlimited)")
	flags.Bool("headful", false, "show the browser window when using the browser backend")
}

// fetchKeys maps the shared fetch flags to their config keys.
var fetchKeys = map[string]string{
	"backend":  "fetch.backend",
	"parallel": "fetch.parallel",
	"rate":     "fetch.rate",
}

// bindCommandFlags binds the fetch flags of the command being run. Several
// commands define the same flags, so binding happens once the command is known.
func bindCommandFlags(cmd *cobra.Command) {
	for flag, key := range fetchKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func newCollector(f config.Fetch) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.AllowURLRevisit(),
	)
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}
	return c
}

func newFetcher(cmd *cobra.Command, f config.Fetch) scrape.Fetcher {
	if f.Backend == config.BackendBrowser {
		headful, _ := cmd.Flags().GetBool("headful")
		return &scrape.BrowserFetcher{
			URL:      f.URL,
			Field:    f.Field,
			Headless: f.Headless && !headful,
			Timeout:  f.Timeout,
		}
	}
	return scrape.NewFormFetcher(newCollector(f), f.URL, f.Field)
}
