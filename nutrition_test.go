package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// setupNutritionixTest starts a mock Nutritionix server and counts calls.
func setupNutritionixTest(t *testing.T, status int, body interface{}) (*nutritionixClient, *int32) {
	t.Helper()
	var calls int32

	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v2/natural/nutrients" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-app-id") != "app" || r.Header.Get("x-app-key") != "key" {
			t.Errorf("missing credentials headers")
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["query"] == "" || req["timezone"] != "Europe/Vienna" {
			t.Errorf("unexpected request body %v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(mock.Close)

	n := newNutritionixClient(nutritionConfig{
		BaseURL:  mock.URL,
		AppID:    "app",
		APIKey:   "key",
		Timezone: "Europe/Vienna",
		Timeout:  5 * time.Second,
	})
	return n, &calls
}

func twoFoods() map[string]interface{} {
	return map[string]interface{}{
		"foods": []map[string]interface{}{
			{"food_name": "eggs", "nf_calories": 143, "nf_protein": 12.6, "nf_total_fat": 9.5, "nf_total_carbohydrate": 0.7},
			{"food_name": "toast", "nf_calories": 75, "nf_protein": 2.6, "nf_total_fat": 1, "nf_total_carbohydrate": 13.8},
		},
	}
}

func TestNutritionix_Lookup(t *testing.T) {
	n, _ := setupNutritionixTest(t, http.StatusOK, twoFoods())

	totals, err := n.lookupNutrients(context.Background(), "I ate two eggs and toast for breakfast")
	if err != nil {
		t.Fatalf("lookupNutrients: %v", err)
	}
	if len(totals.Foods) != 2 || totals.Foods[0].Name != "eggs" {
		t.Fatalf("foods = %+v", totals.Foods)
	}
	if totals.Calories != 218 {
		t.Errorf("calories = %v, want 218", totals.Calories)
	}
	if roundTo(totals.ProteinG, 1) != 15.2 {
		t.Errorf("protein = %v, want 15.2", totals.ProteinG)
	}
}

func TestNutritionix_NoFoods(t *testing.T) {
	n, _ := setupNutritionixTest(t, http.StatusOK, map[string]interface{}{"foods": []interface{}{}})

	if _, err := n.lookupNutrients(context.Background(), "hello"); !errors.Is(err, errNoFoods) {
		t.Fatalf("err = %v, want errNoFoods", err)
	}
}

func TestNutritionix_ErrorStatus(t *testing.T) {
	n, _ := setupNutritionixTest(t, http.StatusNotFound, map[string]string{"message": "We couldn't match any of your foods"})

	if _, err := n.lookupNutrients(context.Background(), "xyz"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestNutritionix_MissingCredentials(t *testing.T) {
	n := newNutritionixClient(nutritionConfig{BaseURL: "http://127.0.0.1:0", Timeout: time.Second})
	if _, err := n.lookupNutrients(context.Background(), "eggs"); err == nil {
		t.Fatal("expected error without credentials")
	}
}

/* ─── Cache decorator ────────────────────────────────────────────────── */

// TestCachedNutritionLookup_HitSkipsUpstream verifies a repeated entry (with
// different case and spacing) is answered from the cache.
func TestCachedNutritionLookup_HitSkipsUpstream(t *testing.T) {
	n, calls := setupNutritionixTest(t, http.StatusOK, twoFoods())
	cached := &cachedNutritionLookup{next: n, cache: newMemoryCache(), ttl: time.Hour}
	ctx := context.Background()

	first, err := cached.lookupNutrients(ctx, "Two eggs and toast")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := cached.lookupNutrients(ctx, "  two   EGGS and toast ")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if got := atomic.LoadInt32(calls); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
	if second.Calories != first.Calories || len(second.Foods) != len(first.Foods) {
		t.Errorf("cached totals = %+v, want %+v", second, first)
	}
}

// TestCachedNutritionLookup_ErrorsNotCached verifies failed lookups are
// retried on the next call.
func TestCachedNutritionLookup_ErrorsNotCached(t *testing.T) {
	n, calls := setupNutritionixTest(t, http.StatusOK, map[string]interface{}{"foods": []interface{}{}})
	cached := &cachedNutritionLookup{next: n, cache: newMemoryCache(), ttl: time.Hour}

	for i := 0; i < 2; i++ {
		if _, err := cached.lookupNutrients(context.Background(), "nothing"); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestNutritionCacheKey(t *testing.T) {
	a := nutritionCacheKey("Two eggs")
	if b := nutritionCacheKey(" two\tEGGS "); a != b {
		t.Errorf("keys differ for equivalent entries: %s vs %s", a, b)
	}
	if c := nutritionCacheKey("three eggs"); a == c {
		t.Error("different entries share a key")
	}
}
