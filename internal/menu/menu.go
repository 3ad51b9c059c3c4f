// Package menu loads the read-only menu reference table and prices order
// lines against it.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Item is one menu entry. Prices are whole currency units.
type Item struct {
	Code  string
	Name  string
	Price int
}

// Menu is an immutable code -> item lookup, built once at startup.
type Menu struct {
	items map[string]Item
}

// Load reads a menu definition file. The file is a pipe table:
//
//	| CODE | NAME            | PRICE |
//	|======|=================|=======|
//	| C1   | Spaghetti       | 10    |
//
// Header and separator rows are skipped; any row whose price column is
// not a number is ignored.
func Load(path string) (*Menu, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open menu file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the pipe-table menu format from r.
func Parse(r io.Reader) (*Menu, error) {
	items := make(map[string]Item)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cols := strings.Split(strings.Trim(line, "|"), "|")
		if len(cols) != 3 {
			continue
		}
		code := strings.TrimSpace(cols[0])
		name := strings.TrimSpace(cols[1])
		price, err := strconv.Atoi(strings.TrimSpace(cols[2]))
		if err != nil || code == "" {
			// header, separator or malformed row
			continue
		}
		items[code] = Item{Code: code, Name: name, Price: price}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("menu contains no items")
	}
	return &Menu{items: items}, nil
}

// Item looks up a menu entry by code.
func (m *Menu) Item(code string) (Item, bool) {
	it, ok := m.items[code]
	return it, ok
}

// Len returns the number of menu entries.
func (m *Menu) Len() int { return len(m.items) }

// Price totals an order line of space-separated code-quantity tokens,
// e.g. "C1-2 D3-1". Codes not on the menu contribute zero and are
// returned in unknown so the caller can flag them; malformed tokens are
// treated the same way.
func (m *Menu) Price(order string) (total int, unknown []string) {
	for _, tok := range strings.Fields(order) {
		code, qtyStr, ok := strings.Cut(tok, "-")
		if !ok {
			unknown = append(unknown, tok)
			continue
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil || qty < 0 {
			unknown = append(unknown, tok)
			continue
		}
		it, found := m.items[code]
		if !found {
			unknown = append(unknown, code)
			continue
		}
		total += it.Price * qty
	}
	return total, unknown
}
