package service

import (
	"encoding/json"
	"kusheet-cart/internal/model"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// NormalizePrice coerces a raw price into a non-negative finite number.
// Strings are read like parseFloat: the longest numeric prefix wins.
func NormalizePrice(v any) float64 {
	var price float64
	switch p := v.(type) {
	case float64:
		price = p
	case float32:
		price = float64(p)
	case int:
		price = float64(p)
	case int32:
		price = float64(p)
	case int64:
		price = float64(p)
	case json.Number:
		price = parseFloatPrefix(p.String())
	case string:
		price = parseFloatPrefix(p)
	default:
		return 0
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

func parseFloatPrefix(s string) float64 {
	match := floatPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// NormalizeID renders string and numeric ids as strings.
func NormalizeID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case json.Number:
		return id.String(), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

// newCartItem builds a normalized CartItem from a raw record.
func newCartItem(raw map[string]any) (model.CartItem, error) {
	id, ok := NormalizeID(raw["id"])
	if !ok {
		return model.CartItem{}, ErrMissingItemID
	}

	price := NormalizePrice(raw["price"])
	explicitFree, _ := raw["isFree"].(bool)

	meta := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "id", "price", "isFree":
			continue
		}
		meta[k] = v
	}

	return model.CartItem{
		ID:     id,
		Price:  price,
		IsFree: explicitFree || price == 0,
		Meta:   meta,
	}, nil
}

// isStoredItemValid is the shape check for persisted items: a usable id and
// a numeric price.
func isStoredItemValid(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	if _, ok := NormalizeID(raw["id"]); !ok {
		return false
	}
	_, numeric := raw["price"].(float64)
	return numeric
}

func sumPrices(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price))
	}
	return total
}
