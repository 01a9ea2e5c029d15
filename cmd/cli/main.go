package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndolgov/moex-analyzer/internal/config"
	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/export"
	"github.com/ndolgov/moex-analyzer/internal/moex"
	"github.com/ndolgov/moex-analyzer/internal/service"
	"github.com/ndolgov/moex-analyzer/internal/storage/cache"
	"github.com/ndolgov/moex-analyzer/internal/storage/postgres"
	pkglogger "github.com/ndolgov/moex-analyzer/pkg/logger"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "moex-analyzer",
		Short: "MOEX Bond Analyzer CLI",
		Long: `CLI for screening MOEX bonds and fetching futures candles.
Searches the ISS bond board, ranks matches by coupon yield and
renders a fixed-width report; candle series can be stored and
exported to xlsx.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return pkglogger.Init(cfg.LogLevel, "console")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			pkglogger.Close()
		},
	}

	var searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Search bonds and print the yield-ranked report",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := filtersFromFlags(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return searchBonds(filters, limit)
		},
	}

	searchCmd.Flags().Int("years-from", -1, "Minimum time to maturity, years part")
	searchCmd.Flags().Int("months-from", -1, "Minimum time to maturity, months part")
	searchCmd.Flags().Int("years-to", -1, "Maximum time to maturity, years part")
	searchCmd.Flags().Int("months-to", -1, "Maximum time to maturity, months part")
	searchCmd.Flags().String("coupon-type", "", "Coupon type: fixed, float, none, unknown")
	searchCmd.Flags().String("bond-type", "", "Bond type: ofz, corporate, municipal")
	searchCmd.Flags().Int("coupon-frequency", -1, "Coupon payments per year")
	searchCmd.Flags().String("currency", "", "Face value currency (e.g. RUB)")
	searchCmd.Flags().String("amortization", "", "Filter by amortization: true or false")
	searchCmd.Flags().String("offer", "", "Filter by offer: true or false")
	searchCmd.Flags().IntP("limit", "l", 0, "Number of bonds to show (0 = config default)")

	var candlesCmd = &cobra.Command{
		Use:   "candles [ticker]",
		Short: "Fetch futures candles and store them",
		Long: `Fetches one year of hourly candles and three years of daily
candles for the ticker and upserts them into PostgreSQL. Without a
reachable database the series are still fetched and counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchCandles(args[0])
		},
	}

	var exportCmd = &cobra.Command{
		Use:   "export [ticker]",
		Short: "Export futures candles to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = args[0] + ".xlsx"
			}
			return exportCandles(args[0], output)
		},
	}

	exportCmd.Flags().StringP("output", "o", "", "Output file path (default <ticker>.xlsx)")

	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check system health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	rootCmd.AddCommand(searchCmd, candlesCmd, exportCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func filtersFromFlags(cmd *cobra.Command) (domain.BondSearchFilters, error) {
	var filters domain.BondSearchFilters

	if delta, ok := maturityFlag(cmd, "years-from", "months-from"); ok {
		filters.MaturityFrom = &delta
	}
	if delta, ok := maturityFlag(cmd, "years-to", "months-to"); ok {
		filters.MaturityTo = &delta
	}

	if filters.MaturityFrom != nil && filters.MaturityTo != nil &&
		filters.MaturityFrom.TotalMonths() > filters.MaturityTo.TotalMonths() {
		return filters, fmt.Errorf("maturity window is inverted")
	}

	if s, _ := cmd.Flags().GetString("coupon-type"); s != "" {
		switch ct := domain.CouponType(s); ct {
		case domain.CouponFixed, domain.CouponFloat, domain.CouponNone, domain.CouponUnknown:
			filters.CouponType = &ct
		default:
			return filters, fmt.Errorf("unknown coupon type: %s", s)
		}
	}

	if s, _ := cmd.Flags().GetString("bond-type"); s != "" {
		switch bt := domain.BondType(s); bt {
		case domain.BondOFZ, domain.BondCorporate, domain.BondMunicipal:
			filters.BondType = &bt
		default:
			return filters, fmt.Errorf("unknown bond type: %s", s)
		}
	}

	if freq, _ := cmd.Flags().GetInt("coupon-frequency"); freq >= 0 {
		filters.CouponFrequency = &freq
	}

	filters.Currency, _ = cmd.Flags().GetString("currency")

	if v, err := boolFlag(cmd, "amortization"); err != nil {
		return filters, err
	} else if v != nil {
		filters.HasAmortization = v
	}

	if v, err := boolFlag(cmd, "offer"); err != nil {
		return filters, err
	} else if v != nil {
		filters.HasOffer = v
	}

	return filters, nil
}

func maturityFlag(cmd *cobra.Command, yearsKey, monthsKey string) (domain.MaturityDelta, bool) {
	years, _ := cmd.Flags().GetInt(yearsKey)
	months, _ := cmd.Flags().GetInt(monthsKey)
	if years < 0 && months < 0 {
		return domain.MaturityDelta{}, false
	}
	if years < 0 {
		years = 0
	}
	if months < 0 {
		months = 0
	}
	return domain.MaturityDelta{Years: years, Months: months}, true
}

func boolFlag(cmd *cobra.Command, name string) (*bool, error) {
	s, _ := cmd.Flags().GetString(name)
	switch s {
	case "":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("invalid %s: %s (use true or false)", name, s)
}

func searchBonds(filters domain.BondSearchFilters, limit int) error {
	ctx := context.Background()
	cfg := config.Load()

	if limit <= 0 {
		limit = cfg.DefaultLimit
	}

	issClient := moex.NewClient(cfg.MoexBaseURL, cfg.MoexTimeout, cfg.MoexPageSize)
	redisCache := connectRedis(cfg)
	if redisCache != nil {
		defer redisCache.Close()
	}

	searchService := service.NewBondSearchService(issClient, redisCache, cfg.EnrichWorkers)

	fmt.Println("🔍 Searching bonds...")

	report, err := searchService.Report(ctx, filters, limit)
	if err != nil {
		return fmt.Errorf("bond search failed: %w", err)
	}

	fmt.Println()
	fmt.Println(report)
	return nil
}

func fetchCandles(ticker string) error {
	ctx := context.Background()
	cfg := config.Load()

	issClient := moex.NewClient(cfg.MoexBaseURL, cfg.MoexTimeout, cfg.MoexPageSize)

	var store service.CandleWriter
	if db, err := connectDB(cfg); err != nil {
		fmt.Printf("⚠️  PostgreSQL unavailable, fetch only: %v\n", err)
	} else {
		defer db.Close()
		store = postgres.NewCandleStore(db.Pool())
	}

	candlesService := service.NewCandlesService(issClient, store)

	fmt.Printf("📥 Fetching candles for %s...\n", ticker)

	hourly, err := candlesService.Hourly1y(ctx, ticker)
	if err != nil {
		return fmt.Errorf("hourly candles: %w", err)
	}
	fmt.Printf("✅ Hourly (1y): %d candles\n", len(hourly))

	daily, err := candlesService.Daily3y(ctx, ticker)
	if err != nil {
		return fmt.Errorf("daily candles: %w", err)
	}
	fmt.Printf("✅ Daily (3y): %d candles\n", len(daily))

	return nil
}

func exportCandles(ticker, output string) error {
	ctx := context.Background()
	cfg := config.Load()

	issClient := moex.NewClient(cfg.MoexBaseURL, cfg.MoexTimeout, cfg.MoexPageSize)
	candlesService := service.NewCandlesService(issClient, nil)

	fmt.Printf("📥 Fetching candles for %s...\n", ticker)

	hourly, err := candlesService.Hourly1y(ctx, ticker)
	if err != nil {
		return fmt.Errorf("hourly candles: %w", err)
	}

	daily, err := candlesService.Daily3y(ctx, ticker)
	if err != nil {
		return fmt.Errorf("daily candles: %w", err)
	}

	workbook, err := export.CandlesWorkbook(hourly, daily)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}

	if err := workbook.SaveAs(output); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}

	fmt.Printf("✅ Saved %d hourly and %d daily candles to %s\n",
		len(hourly), len(daily), output)
	return nil
}

func checkHealth() error {
	ctx := context.Background()
	cfg := config.Load()

	fmt.Println("🏥 Checking system health...")
	fmt.Println()

	fmt.Print("PostgreSQL: ")
	if db, err := connectDB(cfg); err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		defer db.Close()
		fmt.Println("✅ OK")
	}

	fmt.Print("Redis: ")
	if redisCache := connectRedis(cfg); redisCache == nil {
		fmt.Println("❌ unavailable")
	} else {
		defer redisCache.Close()
		fmt.Println("✅ OK")
	}

	fmt.Print("MOEX ISS: ")
	issClient := moex.NewClient(cfg.MoexBaseURL, cfg.MoexTimeout, cfg.MoexPageSize)
	issCtx, cancel := context.WithTimeout(ctx, cfg.MoexTimeout)
	defer cancel()
	if _, err := issClient.AmortizationSchedule(issCtx, "SU26238RMFS4"); err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Println("✅ OK")
	}

	return nil
}

func connectDB(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return nil
	}
	return redisCache
}
