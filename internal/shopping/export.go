package shopping

import (
	"fmt"
	"io"
	"strings"

	"github.com/sakif/foodgram/internal/model"
)

// Header opens every exported list. Existing consumers parse the file
// byte-for-byte, so the header and line layout must not change.
const Header = "Список покупок:\n"

// Filename is suggested to browsers via Content-Disposition.
const Filename = "shopping_cart.txt"

// Render writes the plain-text shopping list: the header, then one
// "\n{name} - {amount} {unit}" line per item.
func Render(w io.Writer, items []model.ShoppingItem) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return fmt.Errorf("shopping: writing header: %w", err)
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "\n%s - %d %s", it.Name, it.Amount, it.Unit); err != nil {
			return fmt.Errorf("shopping: writing item %q: %w", it.Name, err)
		}
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(items []model.ShoppingItem) string {
	var b strings.Builder
	_ = Render(&b, items) // strings.Builder never fails
	return b.String()
}
