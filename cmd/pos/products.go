package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/user"
	"github.com/xenking/brew-pos/internal/format"
	"github.com/xenking/brew-pos/internal/listing"
)

func (c *cli) productsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"catalog"},
		Short:   "Browse and manage the catalog",
	}
	cmd.AddCommand(
		c.productsListCommand(),
		c.productsImportCommand(),
		c.productsAddCommand(),
		c.productsUpdateCommand(),
		c.productsDeleteCommand(),
	)
	return cmd
}

func (c *cli) productsListCommand() *cobra.Command {
	var (
		q    product.Query
		sort string
		desc bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, nil); err != nil {
				return err
			}
			products, err := c.app.Client.Products().List(ctx)
			if err != nil {
				return errors.Wrap(err, "load products")
			}

			q.Sort = product.SortField(sort)
			if desc {
				q.Order = listing.Desc
			}
			if q.PageSize == 0 {
				q.PageSize = c.app.Config.PageSize
			}
			page := product.Browse(products, q)
			return renderProducts(cmd.OutOrStdout(), c.app.Format, page, c.app.Config.LowStockThreshold)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Search, "search", "s", "", "match name or category")
	f.StringVar(&q.Category, "category", "", "only this category")
	f.BoolVar(&q.InStockOnly, "in-stock", false, "hide out-of-stock products")
	f.StringVar(&sort, "sort", string(product.SortByName), "sort by name, price or stock")
	f.BoolVar(&desc, "desc", false, "sort descending")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.PageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}

func renderProducts(out io.Writer, f *format.Formatter, page listing.Page[product.Product], threshold int) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tSTATUS")
	for _, p := range page.Items {
		status := string(p.StockStatus(threshold))
		if !p.Active {
			status += " (inactive)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Category, f.Money(p.Price), p.Stock, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pageFooter(out, page)
	return nil
}

func (c *cli) productsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Create or update products from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, user.User.CanManageProducts); err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open import file")
			}
			defer func() { _ = file.Close() }()

			items, err := product.ReadImport(file)
			if err != nil {
				return err
			}
			res, err := product.Import(ctx, c.app.Client.Products(), items)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d, updated %d, failed %d\n", res.Created, res.Updated, len(res.Failures))
			for _, f := range res.Failures {
				fmt.Fprintf(out, "  %s: %v\n", f.Name, f.Err)
			}
			if len(res.Failures) > 0 {
				return errors.Errorf("%d products were not imported", len(res.Failures))
			}
			return nil
		},
	}
}

// productFlags binds the editable product fields.
type productFlags struct {
	name, category, description, price string
	stock                              int
	inactive                           bool
}

func (pf *productFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pf.name, "name", "", "product name")
	f.StringVar(&pf.category, "category", "", "category")
	f.StringVar(&pf.description, "description", "", "description")
	f.StringVar(&pf.price, "price", "", "unit price, e.g. 120.00")
	f.IntVar(&pf.stock, "stock", 0, "units on hand")
	f.BoolVar(&pf.inactive, "inactive", false, "hide from order entry")
}

// apply copies the flags the user set onto p.
func (pf *productFlags) apply(cmd *cobra.Command, p *product.Product) error {
	f := cmd.Flags()
	if f.Changed("name") {
		p.Name = pf.name
	}
	if f.Changed("category") {
		p.Category = pf.category
	}
	if f.Changed("description") {
		p.Description = pf.description
	}
	if f.Changed("price") {
		v, err := decimal.NewFromString(pf.price)
		if err != nil {
			return errors.Wrapf(err, "parse price %q", pf.price)
		}
		p.Price = v
	}
	if f.Changed("stock") {
		p.Stock = pf.stock
	}
	if f.Changed("inactive") {
		p.Active = !pf.inactive
	}
	return nil
}

func (c *cli) productsAddCommand() *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, user.User.CanManageProducts); err != nil {
				return err
			}
			p := product.Product{Active: true}
			if err := pf.apply(cmd, &p); err != nil {
				return err
			}
			created, err := c.app.Client.Products().Create(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created product #%d %s\n", created.ID, created.Name)
			return nil
		},
	}
	pf.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (c *cli) productsUpdateCommand() *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := c.require(ctx, user.User.CanManageProducts); err != nil {
				return err
			}

			repo := c.app.Client.Products()
			p, err := repo.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := pf.apply(cmd, p); err != nil {
				return err
			}
			updated, err := repo.Update(ctx, *p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated product #%d %s\n", updated.ID, updated.Name)
			return nil
		},
	}
	pf.bind(cmd)
	return cmd
}

func (c *cli) productsDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := c.require(ctx, user.User.CanManageProducts); err != nil {
				return err
			}
			if !yes {
				ok, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).confirm(fmt.Sprintf("Delete product #%d?", id))
				if err != nil || !ok {
					return err
				}
			}
			if err := c.app.Client.Products().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted product #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
