package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/checkout"
	"github.com/xenking/brew-pos/internal/domain/product"
	"github.com/xenking/brew-pos/internal/domain/sale"
	"github.com/xenking/brew-pos/internal/format"
	"github.com/xenking/brew-pos/internal/notice"
)

func (c *cli) orderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Interactive order entry and checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.require(ctx, nil); err != nil {
				return err
			}
			reg, err := c.app.Register()
			if err != nil {
				return err
			}
			s := &orderSession{
				reg:       reg,
				f:         c.app.Format,
				threshold: c.app.Config.LowStockThreshold,
				pageSize:  c.app.Config.PageSize,
				p:         newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
				out:       cmd.OutOrStdout(),
			}
			return s.run(ctx)
		},
	}
}

const orderHelp = `Commands:
  products [search] [page]  list the catalog
  add <id> [qty]            add units to the cart
  inc <id> | dec <id>       change a line by one unit
  qty <id> <n>              set a line's quantity (0 removes)
  rm <id>                   remove a line
  clear                     empty the cart
  cart                      show the cart
  pay <cash|card|ewallet> [reference]
  checkout                  submit the sale
  refresh                   reload the catalog
  quit
`

// orderSession is the order entry REPL.
type orderSession struct {
	reg       *checkout.Register
	f         *format.Formatter
	threshold int
	pageSize  int
	p         *prompter
	out       io.Writer
}

func (s *orderSession) run(ctx context.Context) error {
	if err := s.reg.Refresh(ctx); err != nil {
		printNotices(s.out, s.reg.Notices())
		return err
	}
	fmt.Fprintf(s.out, "%d products loaded. Type help for commands.\n", len(s.reg.Catalog()))

	for {
		line, err := s.p.ask("order> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		quit, err := s.exec(ctx, fields[0], fields[1:])
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		printNotices(s.out, s.reg.Notices())
		if quit {
			return nil
		}
	}
}

// exec runs one command. Register failures are reported through notices
// and not returned.
func (s *orderSession) exec(ctx context.Context, name string, args []string) (quit bool, err error) {
	switch strings.ToLower(name) {
	case "help", "?":
		fmt.Fprint(s.out, orderHelp)
	case "products", "ls":
		return false, s.products(args)
	case "add":
		id, qty, err := idAndCount(args, 1)
		if err != nil {
			return false, err
		}
		_ = s.reg.AddN(id, qty)
	case "inc":
		id, err := oneID(args)
		if err != nil {
			return false, err
		}
		_ = s.reg.Increment(id)
	case "dec":
		id, err := oneID(args)
		if err != nil {
			return false, err
		}
		_ = s.reg.Decrement(id)
	case "qty":
		if len(args) != 2 {
			return false, errors.New("usage: qty <id> <n>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return false, errors.Errorf("invalid quantity %q", args[1])
		}
		_ = s.reg.UpdateQuantity(id, n)
	case "rm", "remove":
		return false, s.remove(args)
	case "clear":
		return false, s.clear()
	case "cart":
		return false, s.cart()
	case "pay":
		return false, s.pay(args)
	case "checkout", "submit":
		s.checkout(ctx)
	case "refresh":
		_ = s.reg.Refresh(ctx)
	case "quit", "exit", "q":
		if !s.reg.Cart().IsEmpty() {
			ok, err := s.p.confirm("Cart is not empty. Quit anyway?")
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, errors.Errorf("unknown command %q, type help", name)
	}
	return false, nil
}

func (s *orderSession) products(args []string) error {
	q := product.Query{Page: 1, PageSize: s.pageSize}
	if n := len(args); n > 0 {
		if page, err := strconv.Atoi(args[n-1]); err == nil {
			q.Page = page
			args = args[:n-1]
		}
	}
	q.Search = strings.Join(args, " ")

	page := product.Browse(s.reg.Catalog(), q)
	w := newTable(s.out)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tIN CART\tAVAILABLE")
	for _, p := range page.Items {
		stock := strconv.Itoa(p.Stock)
		switch p.StockStatus(s.threshold) {
		case product.StockOut:
			stock = "out"
		case product.StockLow:
			stock += " (low)"
		}
		c := s.reg.Cart()
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, s.f.Money(p.Price), stock, c.Quantity(p.ID), max(c.Available(p.ID), 0))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pageFooter(s.out, page)
	return nil
}

func (s *orderSession) remove(args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	name := ""
	for _, l := range s.reg.Cart().Lines() {
		if l.ProductID == id {
			name = l.Name
		}
	}
	if name == "" {
		return errors.Errorf("product %d is not in the cart", id)
	}
	ok, err := s.p.confirm(fmt.Sprintf("Remove %s from cart?", name))
	if err != nil || !ok {
		return err
	}
	s.reg.Remove(id)
	s.reg.Notices().Postf(notice.Info, "Removed %s from cart", name)
	return nil
}

func (s *orderSession) clear() error {
	if s.reg.Cart().IsEmpty() {
		fmt.Fprintln(s.out, "Cart is already empty")
		return nil
	}
	ok, err := s.p.confirm(fmt.Sprintf("Clear all %d items from the cart?", s.reg.Cart().Units()))
	if err != nil || !ok {
		return err
	}
	s.reg.Clear()
	s.reg.Notices().Postf(notice.Info, "Cart cleared")
	return nil
}

func (s *orderSession) cart() error {
	c := s.reg.Cart()
	if c.IsEmpty() {
		fmt.Fprintln(s.out, "Cart is empty")
		return nil
	}
	w := newTable(s.out)
	fmt.Fprintln(w, "ID\tITEM\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range c.Lines() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, s.f.Money(l.UnitPrice), s.f.Money(l.Subtotal()))
	}
	fmt.Fprintf(w, "\tTOTAL\t%d\t\t%s\n", c.Units(), s.f.Money(c.Total()))
	if err := w.Flush(); err != nil {
		return err
	}
	method, ref := s.reg.Payment()
	if ref != "" {
		fmt.Fprintf(s.out, "Payment: %s (ref %s)\n", method, ref)
	} else {
		fmt.Fprintf(s.out, "Payment: %s\n", method)
	}
	return nil
}

func (s *orderSession) pay(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: pay <cash|card|ewallet> [reference]")
	}
	method, err := sale.ParsePaymentMethod(args[0])
	if err != nil {
		return err
	}
	ref := strings.Join(args[1:], " ")
	if err := s.reg.SetPayment(method, ref); err != nil {
		return err
	}
	if method.RequiresReference() && strings.TrimSpace(ref) == "" {
		fmt.Fprintf(s.out, "Payment set to %s; a reference number is required before checkout\n", method)
		return nil
	}
	fmt.Fprintf(s.out, "Payment set to %s\n", method)
	return nil
}

func (s *orderSession) checkout(ctx context.Context) {
	sl, err := s.reg.Submit(ctx)
	if err != nil {
		return
	}
	w := newTable(s.out)
	fmt.Fprintf(w, "Receipt #%d\t%s\n", sl.ID, s.f.DateTime(sl.CreatedAt))
	for _, it := range sl.Items {
		fmt.Fprintf(w, "%d x %s\t%s\n", it.Quantity, it.Name, s.f.Money(it.Subtotal))
	}
	fmt.Fprintf(w, "Total\t%s\n", s.f.Money(sl.Total))
	fmt.Fprintf(w, "Paid by\t%s %s\n", sl.PaymentMethod, sl.ReferenceNo)
	_ = w.Flush()
}

func oneID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected a product id")
	}
	return parseID(args[0])
}

func idAndCount(args []string, def int) (int64, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, errors.New("usage: add <id> [qty]")
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	n := def
	if len(args) == 2 {
		n, err = strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return 0, 0, errors.Errorf("invalid quantity %q", args[1])
		}
	}
	return id, n, nil
}
