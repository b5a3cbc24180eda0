package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/brew-pos/internal/format"
	"github.com/xenking/brew-pos/internal/listing"
	"github.com/xenking/brew-pos/internal/notice"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printNotices writes the active notices and clears the board.
func printNotices(w io.Writer, board *notice.Board) {
	for _, n := range board.Active() {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(n.Level)), n.Message)
	}
	board.Dismiss()
}

func pageFooter[T any](w io.Writer, p listing.Page[T]) {
	fmt.Fprintf(w, "Page %d of %d (%d items)\n", p.Page, max(p.TotalPages, 1), p.TotalItems)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return id, nil
}

// prompter reads answers line by line from the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints label and returns the trimmed answer. io.EOF is returned once
// input is exhausted.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/N question; anything but y or yes is no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " [y/N]: ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// dateRange turns inclusive --from/--to dates into a half-open range.
func dateRange(f *format.Formatter, from, to string) (time.Time, time.Time, error) {
	start, err := f.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := f.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("--from must not be after --to")
	}
	return start, end, nil
}
