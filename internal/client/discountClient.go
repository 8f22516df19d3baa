package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"kusheet-cart/internal/config"
	"kusheet-cart/internal/dto"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const validatePath = "/api/discounts/validate"

type DiscountClient interface {
	Validate(ctx context.Context, code string, items []*dto.Item) (*DiscountResult, error)
}

type DiscountResult struct {
	Code   string
	Amount float64
	Meta   map[string]any
}

// RejectedError is returned when the discount authority answered but did not
// accept the code. Message is the server supplied text, possibly empty.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discount rejected: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("discount rejected: status=%d message=%s", e.StatusCode, e.Message)
}

type discountClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewDiscountClient(discountCfg *config.Discount) DiscountClient {
	timeout := discountCfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &discountClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: strings.TrimRight(discountCfg.BaseApiURL, "/"),
	}
}

func (c *discountClientImpl) Validate(ctx context.Context, code string, items []*dto.Item) (*DiscountResult, error) {
	body, err := json.Marshal(&dto.ValidateDiscountRequest{
		Code:  code,
		Items: items,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+validatePath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discount validate request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read discount response: %w", err)
	}

	var result dto.ValidateDiscountResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// error payloads are best effort, the status alone is a rejection
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: result.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode discount response: %w", decodeErr)
	}
	if !result.Success {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: result.Message}
	}

	resolved := &DiscountResult{
		Code:   code,
		Amount: _amountOf(result.Data["amount"]),
		Meta:   result.Data,
	}
	if serverCode, ok := result.Data["code"].(string); ok && serverCode != "" {
		resolved.Code = serverCode
	}

	return resolved, nil
}

func _amountOf(v any) float64 {
	switch amount := v.(type) {
	case float64:
		return amount
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	default:
		return 0
	}
}
