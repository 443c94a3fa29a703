package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// nutritionLookup turns a free-text food diary entry into nutrient totals.
type nutritionLookup interface {
	lookupNutrients(ctx context.Context, text string) (nutrientTotals, error)
}

var errNoFoods = errors.New("no foods recognised")

/* ─── Nutritionix client ─────────────────────────────────────────────── */

// nutritionixClient calls the Nutritionix natural-language nutrients endpoint.
type nutritionixClient struct {
	client   *http.Client
	baseURL  string // e.g. https://trackapi.nutritionix.com (overridable for tests)
	appID    string
	apiKey   string
	timezone string
}

func newNutritionixClient(cfg nutritionConfig) *nutritionixClient {
	return &nutritionixClient{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		appID:    cfg.AppID,
		apiKey:   cfg.APIKey,
		timezone: cfg.Timezone,
	}
}

// nutritionixResponse is the subset of /v2/natural/nutrients we read.
type nutritionixResponse struct {
	Foods []struct {
		FoodName          string  `json:"food_name"`
		Calories          float64 `json:"nf_calories"`
		Protein           float64 `json:"nf_protein"`
		TotalFat          float64 `json:"nf_total_fat"`
		TotalCarbohydrate float64 `json:"nf_total_carbohydrate"`
	} `json:"foods"`
}

func (n *nutritionixClient) lookupNutrients(ctx context.Context, text string) (nutrientTotals, error) {
	if n.appID == "" || n.apiKey == "" {
		return nutrientTotals{}, fmt.Errorf("nutrition api credentials not set")
	}

	bodyBytes, err := json.Marshal(map[string]string{"query": text, "timezone": n.timezone})
	if err != nil {
		return nutrientTotals{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(n.baseURL, "/")+"/v2/natural/nutrients", bytes.NewReader(bodyBytes))
	if err != nil {
		return nutrientTotals{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-app-id", n.appID)
	httpReq.Header.Set("x-app-key", n.apiKey)
	httpReq.Header.Set("x-remote-user-id", "0")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return nutrientTotals{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nutrientTotals{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nutrientTotals{}, fmt.Errorf("nutritionix returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var parsed nutritionixResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nutrientTotals{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Foods) == 0 {
		return nutrientTotals{}, errNoFoods
	}

	var totals nutrientTotals
	for _, f := range parsed.Foods {
		totals.add(foodItem{
			Name:     f.FoodName,
			Calories: f.Calories,
			ProteinG: f.Protein,
			FatG:     f.TotalFat,
			CarbsG:   f.TotalCarbohydrate,
		})
	}
	return totals, nil
}

/* ─── Caching decorator ──────────────────────────────────────────────── */

// cachedNutritionLookup memoizes lookups by normalized entry text. Cache
// failures are logged and fall through to the wrapped lookup.
type cachedNutritionLookup struct {
	next  nutritionLookup
	cache cacheRepository
	ttl   time.Duration
}

// nutritionCacheKey lower-cases and collapses whitespace so trivially
// different spellings of the same entry share a cache slot.
func nutritionCacheKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "smartfit:nutrition:" + hex.EncodeToString(sum[:])
}

func (c *cachedNutritionLookup) lookupNutrients(ctx context.Context, text string) (nutrientTotals, error) {
	key := nutritionCacheKey(text)

	if raw, ok, err := c.cache.get(ctx, key); err != nil {
		log.Printf("[nutritionCache] get error: %v", err)
	} else if ok {
		var totals nutrientTotals
		if err := json.Unmarshal([]byte(raw), &totals); err == nil {
			return totals, nil
		}
		log.Printf("[nutritionCache] dropping unreadable entry %s", key)
	}

	totals, err := c.next.lookupNutrients(ctx, text)
	if err != nil {
		return nutrientTotals{}, err
	}

	if raw, err := json.Marshal(totals); err == nil {
		if err := c.cache.set(ctx, key, string(raw), c.ttl); err != nil {
			log.Printf("[nutritionCache] set error: %v", err)
		}
	}
	return totals, nil
}
