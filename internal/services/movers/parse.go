package movers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bobmcallan/indexboard/internal/models"
)

// maxSafeInteger is the largest integer a JSON number can carry exactly.
const maxSafeInteger = 1<<53 - 1

// extractJSON returns the span from the first '{' to the last '}' in text.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// decodePayload decodes the movers object, truncates both lists and strictly
// decodes the retained records. Any malformed retained record fails the batch.
func decodePayload(body, indexName string) (gainers, losers []models.Company, err error) {
	var raw map[string]json.RawMessage
	if jerr := json.Unmarshal([]byte(body), &raw); jerr != nil {
		return nil, nil, stageErr(StageParse, "decode response JSON: %w", jerr)
	}

	gainers, err = decodeList(raw, "gainers", indexName)
	if err != nil {
		return nil, nil, err
	}
	losers, err = decodeList(raw, "losers", indexName)
	if err != nil {
		return nil, nil, err
	}
	return gainers, losers, nil
}

func decodeList(raw map[string]json.RawMessage, key, indexName string) ([]models.Company, error) {
	msg, ok := raw[key]
	if !ok || isNull(msg) {
		return nil, stageErr(StageValidation, "missing %s data for %s", key, indexName)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil, stageErr(StageValidation, "%s for %s is not a list", key, indexName)
	}

	if len(items) > models.MaxMovers {
		items = items[:models.MaxMovers]
	}

	out := make([]models.Company, 0, len(items))
	for i, item := range items {
		c, err := decodeCompany(item)
		if err != nil {
			return nil, stageErr(StageValidation, "%s[%d] for %s: %w", key, i, indexName, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// decodeCompany requires every field to be present and correctly typed.
func decodeCompany(msg json.RawMessage) (models.Company, error) {
	var c models.Company

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil || fields == nil {
		return c, fmt.Errorf("record is not an object")
	}

	var err error
	if c.Symbol, err = stringField(fields, "symbol"); err != nil {
		return c, err
	}
	if c.Name, err = stringField(fields, "name"); err != nil {
		return c, err
	}
	if c.Price, err = numberField(fields, "price"); err != nil {
		return c, err
	}
	if c.Change, err = numberField(fields, "change"); err != nil {
		return c, err
	}
	if c.PercentChange, err = numberField(fields, "percentChange"); err != nil {
		return c, err
	}
	if c.MarketCap, err = numberField(fields, "marketCap"); err != nil {
		return c, err
	}

	volume, err := numberField(fields, "volume")
	if err != nil {
		return c, err
	}
	if volume < 0 || volume != math.Trunc(volume) || volume > maxSafeInteger {
		return c, fmt.Errorf("volume must be a non-negative integer, got %v", volume)
	}
	c.Volume = int64(volume)

	if c.Price < 0 {
		return c, fmt.Errorf("price must not be negative, got %v", c.Price)
	}
	if c.MarketCap < 0 {
		return c, fmt.Errorf("marketCap must not be negative, got %v", c.MarketCap)
	}

	return c, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	msg, ok := fields[name]
	if !ok || isNull(msg) {
		return "", fmt.Errorf("missing field %q", name)
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	return s, nil
}

func numberField(fields map[string]json.RawMessage, name string) (float64, error) {
	msg, ok := fields[name]
	if !ok || isNull(msg) {
		return 0, fmt.Errorf("missing field %q", name)
	}
	var v float64
	if err := json.Unmarshal(msg, &v); err != nil {
		return 0, fmt.Errorf("field %q must be a number", name)
	}
	return v, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
