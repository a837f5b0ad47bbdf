package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/leadlag-ai-go/internal/database"
	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// PriceSource supplies daily close series for a set of symbols. Symbols without data are
// absent from the returned map rather than reported as errors.
type PriceSource interface {
	GetCloseSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.PricePoint, error)
}

// PostgresPriceSource reads daily closes from the market_data table.
type PostgresPriceSource struct {
	db     database.Querier
	logger *logrus.Logger
}

// NewPostgresPriceSource creates a price source backed by the connection pool.
func NewPostgresPriceSource(db *database.PostgresDB, logger *logrus.Logger) *PostgresPriceSource {
	var querier database.Querier
	if db != nil && db.Pool != nil {
		querier = database.NewTracedDB(db.Pool)
	}
	return NewPostgresPriceSourceWithQuerier(querier, logger)
}

// NewPostgresPriceSourceWithQuerier creates a price source with a custom querier (for tests).
func NewPostgresPriceSourceWithQuerier(db database.Querier, logger *logrus.Logger) *PostgresPriceSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PostgresPriceSource{db: db, logger: logger}
}

const dailyCloseQuery = `
		SELECT DISTINCT ON (date_trunc('day', md.timestamp))
			date_trunc('day', md.timestamp) AS day, md.last_price
		FROM market_data md
		JOIN trading_pairs tp ON md.trading_pair_id = tp.id
		WHERE tp.symbol = $1 AND md.timestamp >= $2 AND md.timestamp < $3 AND md.last_price > 0
		ORDER BY date_trunc('day', md.timestamp), md.timestamp DESC
	`

// GetCloseSeries returns the last price of each day in [start, end) per symbol, ascending.
func (s *PostgresPriceSource) GetCloseSeries(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.PricePoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("price database is not available")
	}

	series := make(map[string][]models.PricePoint, len(symbols))
	for _, symbol := range symbols {
		if _, done := series[symbol]; done {
			continue
		}
		points, err := s.getDailyCloses(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load closes for %s: %w", symbol, err)
		}
		if len(points) == 0 {
			s.logger.WithField("symbol", symbol).Warn("No price data in range")
			continue
		}
		series[symbol] = points
	}
	return series, nil
}

func (s *PostgresPriceSource) getDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	rows, err := s.db.Query(ctx, dailyCloseQuery, symbol, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var day time.Time
		var price float64
		if err := rows.Scan(&day, &price); err != nil {
			return nil, err
		}
		points = append(points, models.PricePoint{Timestamp: day, Close: price})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}
