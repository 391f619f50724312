package bot

import (
	"fmt"
	"strings"

	"github.com/tiffinflow/relay/internal/catalog"
	"github.com/tiffinflow/relay/internal/whatsapp"
)

const (
	menuCommand = "menu"

	listHeader       = "🍱 TiffinFlow Menu"
	listBody         = "Select a kitchen to view today's meal:"
	listFooter       = "Pure Home Taste"
	listButton       = "View Kitchens"
	listSectionTitle = "Nearby Kitchens"
	rowDescription   = "Tap to see today's thali"

	unknownKitchen = "Unknown Kitchen"
	defaultItems   = "Menu coming soon"
	defaultPrice   = "120"

	noKitchensText    = "Sorry, no kitchens are live right now."
	unavailableText   = "Sorry, details for this kitchen are not available."
	orderCallToAction = "Reply 'ORDER' to book now!"
)

// IsMenuCommand reports whether a text body asks for the kitchen list.
func IsMenuCommand(body string) bool {
	return strings.ToLower(strings.TrimSpace(body)) == menuCommand
}

// BuildMenuList turns catalog entries into one interactive list with at
// most whatsapp.MaxListRows rows, in the order given.
func BuildMenuList(entries []catalog.Entry) whatsapp.ListMessage {
	n := min(len(entries), whatsapp.MaxListRows)
	rows := make([]whatsapp.SectionRow, 0, n)
	for _, e := range entries[:n] {
		rows = append(rows, menuRow(e))
	}

	return whatsapp.ListMessage{
		Header: listHeader,
		Body:   listBody,
		Footer: listFooter,
		Button: listButton,
		Sections: []whatsapp.Section{{
			Title: listSectionTitle,
			Rows:  rows,
		}},
	}
}

func menuRow(e catalog.Entry) whatsapp.SectionRow {
	return whatsapp.SectionRow{
		ID:          e.ID,
		Title:       whatsapp.Truncate(kitchenName(e), whatsapp.MaxRowTitle),
		Description: whatsapp.Truncate(rowDescription, whatsapp.MaxRowDescription),
	}
}

// FormatKitchenDetails renders one kitchen's menu as a WhatsApp text.
func FormatKitchenDetails(e catalog.Entry) string {
	items := strings.TrimSpace(string(e.Items))
	if items == "" {
		items = defaultItems
	}
	price := string(e.Price)
	if e.Price.IsZero() {
		price = defaultPrice
	}

	return fmt.Sprintf("*%s Today's Menu:*\n\n🍴 %s\n💰 Price: ₹%s\n\n%s",
		kitchenName(e), items, price, orderCallToAction)
}

func kitchenName(e catalog.Entry) string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return unknownKitchen
}
