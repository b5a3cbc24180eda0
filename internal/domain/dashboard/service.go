package dashboard

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/sale"
)

// Config tunes what the dashboard loads.
type Config struct {
	LowStockThreshold int
	TopProducts       int
	RecentSales       int
}

// Service assembles a Snapshot from several backend calls.
type Service struct {
	cfg      Config
	source   Source
	products product.Lister
	sales    sale.Repository
	now      func() time.Time
}

// NewService creates a Service. A negative low-stock threshold falls back to
// product.DefaultLowStockThreshold; zero counts fall back to 5 top products
// and 10 recent sales.
func NewService(cfg Config, source Source, products product.Lister, sales sale.Repository) *Service {
	if cfg.LowStockThreshold < 0 {
		cfg.LowStockThreshold = product.DefaultLowStockThreshold
	}
	if cfg.TopProducts <= 0 {
		cfg.TopProducts = 5
	}
	if cfg.RecentSales <= 0 {
		cfg.RecentSales = 10
	}
	return &Service{
		cfg:      cfg,
		source:   source,
		products: products,
		sales:    sales,
		now:      time.Now,
	}
}

// Load fetches the summary, best sellers, catalog and today's sales
// concurrently. Any failure fails the whole load.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	var (
		snap     Snapshot
		catalog  []product.Product
		today    []sale.Sale
		now      = s.now()
		midnight = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.source.Summary(ctx)
		if err != nil {
			return errors.Wrap(err, "summary")
		}
		snap.Summary = *sum
		return nil
	})
	g.Go(func() error {
		top, err := s.source.TopProducts(ctx, s.cfg.TopProducts)
		if err != nil {
			return errors.Wrap(err, "top products")
		}
		snap.TopProducts = top
		return nil
	})
	g.Go(func() error {
		list, err := s.products.List(ctx)
		if err != nil {
			return errors.Wrap(err, "products")
		}
		catalog = list
		return nil
	})
	g.Go(func() error {
		list, err := s.sales.List(ctx, sale.Filter{From: midnight, To: midnight.AddDate(0, 0, 1)})
		if err != nil {
			return errors.Wrap(err, "recent sales")
		}
		today = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.LowStock = product.LowStock(catalog, s.cfg.LowStockThreshold)
	recent := sale.History(today, sale.HistoryQuery{PageSize: s.cfg.RecentSales})
	snap.RecentSales = recent.Page.Items
	snap.FetchedAt = now
	return &snap, nil
}
