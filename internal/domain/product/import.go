package product

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type importJSON struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      *bool           `json:"active"`
}

// ReadImport parses a JSON array of products. Missing "active" means true.
func ReadImport(r io.Reader) ([]Product, error) {
	var raw []importJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		out = append(out, Product{
			Name:        strings.TrimSpace(p.Name),
			Category:    strings.TrimSpace(p.Category),
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Active:      active,
		})
	}
	return out, nil
}

// ImportFailure is an item Import could not apply.
type ImportFailure struct {
	Name string
	Err  error
}

// ImportResult summarizes an Import run.
type ImportResult struct {
	Created  int
	Updated  int
	Failures []ImportFailure
}

// Import upserts items by case-insensitive name: existing products are
// updated in place, new ones created. Invalid or rejected items are
// collected in the result and do not stop the run; only a failure to read
// the current catalog aborts it.
func Import(ctx context.Context, repo Repository, items []Product) (*ImportResult, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	byName := make(map[string]int64, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p.ID
	}

	res := &ImportResult{}
	for _, p := range items {
		if err := Validate(p); err != nil {
			res.Failures = append(res.Failures, ImportFailure{Name: p.Name, Err: err})
			continue
		}

		key := strings.ToLower(p.Name)
		if id, ok := byName[key]; ok {
			p.ID = id
			if _, err := repo.Update(ctx, p); err != nil {
				res.Failures = append(res.Failures, ImportFailure{Name: p.Name, Err: err})
				continue
			}
			res.Updated++
			continue
		}

		created, err := repo.Create(ctx, p)
		if err != nil {
			res.Failures = append(res.Failures, ImportFailure{Name: p.Name, Err: err})
			continue
		}
		byName[key] = created.ID
		res.Created++
	}
	return res, nil
}
