// Package shoplist holds the aggregated shopping-list line type and turns a
// list of lines into the downloadable plain-text document.
package shoplist

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ContentType is the media type of the rendered document.
const ContentType = "text/plain; charset=utf-8"

const (
	header = "Shopping list:"
	rule   = "========================================" // 40 '='
)

// Item is one aggregated line: an ingredient identity and the summed amount
// across every recipe in the cart.
type Item struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int64  `json:"amount"`
}

// Sort orders items alphabetically by name using the collation rules of
// locale (a BCP 47 tag such as "ru" or "en"), then by unit. Unknown tags
// fall back to the root collation.
func Sort(items []Item, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	c := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		if n := c.CompareString(items[i].Name, items[j].Name); n != 0 {
			return n < 0
		}
		return c.CompareString(items[i].Unit, items[j].Unit) < 0
	})
}

// DisplayName picks the name used in the sign-off.
func DisplayName(firstName, username string) string {
	if s := strings.TrimSpace(firstName); s != "" {
		return s
	}
	return username
}

// Render produces the text document:
//
//	Shopping list:
//	========================================
//	• <name> - <amount> <unit>
//	========================================
//	Happy shopping, <name>!
func Render(items []Item, displayName string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(rule)
	b.WriteByte('\n')
	for _, it := range items {
		fmt.Fprintf(&b, "• %s - %d %s\n", it.Name, it.Amount, it.Unit)
	}
	b.WriteString(rule)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Happy shopping, %s!", displayName)
	return b.String()
}

// FileName returns the attachment name for username's list.
func FileName(username string) string {
	return "shopping_list_" + username + ".txt"
}
