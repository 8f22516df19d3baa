package model

import "encoding/json"

// CartItem is one sheet in a cart. Display metadata (title, subject, faculty,
// seller, ...) is kept in Meta and flattened into the JSON record.
type CartItem struct {
	ID     string
	Price  float64
	IsFree bool
	Meta   map[string]any
}

func (i CartItem) Title() string {
	if title, ok := i.Meta["title"].(string); ok && title != "" {
		return title
	}
	return "item"
}

func (i CartItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Meta)+3)
	for k, v := range i.Meta {
		out[k] = v
	}
	out["id"] = i.ID
	out["price"] = i.Price
	out["isFree"] = i.IsFree
	return json.Marshal(out)
}

// CartState is the persisted cart record of one user scope.
type CartState struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

type DiscountState struct {
	Code   string         `json:"code"`
	Amount float64        `json:"amount"`
	Meta   map[string]any `json:"meta"`
}

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
