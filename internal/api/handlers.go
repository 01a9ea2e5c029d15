package api

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ndolgov/moex-analyzer/internal/domain"
	"github.com/ndolgov/moex-analyzer/internal/export"
	"github.com/ndolgov/moex-analyzer/internal/service"
	"github.com/ndolgov/moex-analyzer/internal/storage/cache"
	"github.com/ndolgov/moex-analyzer/internal/storage/postgres"
	"github.com/ndolgov/moex-analyzer/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	db             *postgres.DB
	cacheService   *cache.RedisCache
	searchService  *service.BondSearchService
	candlesService *service.CandlesService
	candleStore    *postgres.CandleStore
	defaultLimit   int
}

func NewHandler(
	db *postgres.DB,
	cacheService *cache.RedisCache,
	searchService *service.BondSearchService,
	candlesService *service.CandlesService,
	candleStore *postgres.CandleStore,
	defaultLimit int,
) *Handler {
	return &Handler{
		db:             db,
		cacheService:   cacheService,
		searchService:  searchService,
		candlesService: candlesService,
		candleStore:    candleStore,
		defaultLimit:   defaultLimit,
	}
}

func (h *Handler) SearchBonds(c *fiber.Ctx) error {
	start := time.Now()

	filters, err := parseBondFilters(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	limit := c.QueryInt("limit", h.defaultLimit)

	logger.Info("searching bonds",
		zap.Int("limit", limit),
		zap.String("request_id", getRequestID(c)))

	bonds, total, err := h.searchService.TopByYield(c.Context(), filters, limit)
	if err != nil {
		logger.Error("bond search failed", zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error:     "bond search failed",
			Code:      fiber.StatusBadGateway,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(BondSearchResponse{
		Total:          total,
		Count:          len(bonds),
		Bonds:          bonds,
		ProcessingTime: time.Since(start).String(),
	})
}

func (h *Handler) BondReport(c *fiber.Ctx) error {
	filters, err := parseBondFilters(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	limit := c.QueryInt("limit", h.defaultLimit)

	report, err := h.searchService.Report(c.Context(), filters, limit)
	if err != nil {
		logger.Error("bond report failed", zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error:     "bond report failed",
			Code:      fiber.StatusBadGateway,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(report)
}

func (h *Handler) GetCandles(c *fiber.Ctx) error {
	ticker := c.Params("ticker")
	if ticker == "" {
		return badRequest(c, "ticker is required")
	}

	filter := domain.CandleFilter{
		Ticker:   ticker,
		Interval: c.QueryInt("interval", 24),
	}

	if dateStr := c.Query("start_date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return badRequest(c, "invalid start_date (use YYYY-MM-DD)")
		}
		filter.StartDate = &parsed
	}

	if dateStr := c.Query("end_date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return badRequest(c, "invalid end_date (use YYYY-MM-DD)")
		}
		filter.EndDate = &parsed
	}

	candles, err := h.candleStore.GetCandles(c.Context(), filter)
	if err != nil {
		logger.Error("candle lookup failed",
			zap.String("ticker", ticker),
			zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "candle lookup failed",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(CandlesResponse{
		Ticker:   ticker,
		Interval: filter.Interval,
		Count:    len(candles),
		Candles:  candles,
	})
}

func (h *Handler) ExportCandles(c *fiber.Ctx) error {
	ticker := c.Params("ticker")
	if ticker == "" {
		return badRequest(c, "ticker is required")
	}

	hourly, err := h.candlesService.Hourly1y(c.Context(), ticker)
	if err != nil {
		logger.Error("hourly candle fetch failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return exportFailed(c)
	}

	daily, err := h.candlesService.Daily3y(c.Context(), ticker)
	if err != nil {
		logger.Error("daily candle fetch failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return exportFailed(c)
	}

	workbook, err := export.CandlesWorkbook(hourly, daily)
	if err != nil {
		logger.Error("workbook build failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return exportFailed(c)
	}

	var buf bytes.Buffer
	if _, err := workbook.WriteTo(&buf); err != nil {
		logger.Error("workbook write failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return exportFailed(c)
	}

	c.Set(fiber.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.xlsx"`, ticker))
	return c.Send(buf.Bytes())
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	// Either backend may be nil when it was unreachable at startup.
	dbStart := time.Now()
	if h.db == nil {
		services["database"] = ServiceHealth{
			Status: "unhealthy",
			Error:  "not configured",
		}
	} else if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = ServiceHealth{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	} else {
		services["database"] = ServiceHealth{
			Status:  "healthy",
			Latency: time.Since(dbStart).String(),
		}
	}

	redisStart := time.Now()
	if h.cacheService == nil {
		services["redis"] = ServiceHealth{
			Status: "unhealthy",
			Error:  "unavailable",
		}
	} else if err := h.cacheService.HealthCheck(ctx); err != nil {
		services["redis"] = ServiceHealth{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	} else {
		services["redis"] = ServiceHealth{
			Status:  "healthy",
			Latency: time.Since(redisStart).String(),
		}
	}

	status := "ready"
	for _, svc := range services {
		if svc.Status != "healthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	pattern := c.Params("pattern", "*")

	if h.cacheService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:     "cache is not available",
			Code:      fiber.StatusServiceUnavailable,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	if err := h.cacheService.DeletePattern(c.Context(), pattern); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:     "cache invalidation failed",
			Code:      fiber.StatusInternalServerError,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("cache invalidated for pattern: %s", pattern),
	})
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	dbStats := h.db.Stats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatsResponse{
		Database: DatabaseStats{
			ActiveConnections: dbStats.AcquiredConns(),
			IdleConnections:   dbStats.IdleConns(),
			TotalConnections:  dbStats.TotalConns(),
			WaitCount:         dbStats.EmptyAcquireCount(),
			WaitDuration:      dbStats.AcquireDuration().String(),
		},
		Cache: CacheStats{
			MemoryUsed: fmt.Sprintf("%d MB", m.Alloc/1024/1024),
		},
		API: APIStats{
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	}

	return c.JSON(response)
}

// parseBondFilters reads the search constraints off the query string.
// Maturity bounds come as year+month pairs and must be ordered.
func parseBondFilters(c *fiber.Ctx) (domain.BondSearchFilters, error) {
	var filters domain.BondSearchFilters

	if delta, ok := parseMaturityDelta(c, "years_from", "months_from"); ok {
		filters.MaturityFrom = &delta
	}
	if delta, ok := parseMaturityDelta(c, "years_to", "months_to"); ok {
		filters.MaturityTo = &delta
	}

	if filters.MaturityFrom != nil && filters.MaturityTo != nil &&
		filters.MaturityFrom.TotalMonths() > filters.MaturityTo.TotalMonths() {
		return filters, fmt.Errorf("maturity window is inverted")
	}

	if s := c.Query("coupon_type"); s != "" {
		switch ct := domain.CouponType(s); ct {
		case domain.CouponFixed, domain.CouponFloat, domain.CouponNone, domain.CouponUnknown:
			filters.CouponType = &ct
		default:
			return filters, fmt.Errorf("unknown coupon_type: %s", s)
		}
	}

	if s := c.Query("bond_type"); s != "" {
		switch bt := domain.BondType(s); bt {
		case domain.BondOFZ, domain.BondCorporate, domain.BondMunicipal:
			filters.BondType = &bt
		default:
			return filters, fmt.Errorf("unknown bond_type: %s", s)
		}
	}

	if freq := c.QueryInt("coupon_frequency", -1); freq >= 0 {
		filters.CouponFrequency = &freq
	}

	filters.Currency = c.Query("currency")

	if s := c.Query("has_amortization"); s != "" {
		v, err := parseBoolParam(s)
		if err != nil {
			return filters, fmt.Errorf("invalid has_amortization: %s", s)
		}
		filters.HasAmortization = &v
	}

	if s := c.Query("has_offer"); s != "" {
		v, err := parseBoolParam(s)
		if err != nil {
			return filters, fmt.Errorf("invalid has_offer: %s", s)
		}
		filters.HasOffer = &v
	}

	return filters, nil
}

func parseMaturityDelta(c *fiber.Ctx, yearsKey, monthsKey string) (domain.MaturityDelta, bool) {
	years := c.QueryInt(yearsKey, -1)
	months := c.QueryInt(monthsKey, -1)
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

func parseBoolParam(s string) (bool, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %s", s)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:     message,
		Code:      fiber.StatusBadRequest,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func exportFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
		Error:     "candle export failed",
		Code:      fiber.StatusBadGateway,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func getRequestID(c *fiber.Ctx) string {
	if id := c.Locals("requestID"); id != nil {
		return id.(string)
	}
	return ""
}
