package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/o1x3/ctoken/pkg/pricing"
)

// Check names registered by RegisterPricingChecks.
const (
	CheckPricingTable     = "pricing_table"
	CheckPricingFreshness = "pricing_freshness"
	CheckPricingRefresh   = "pricing_refresh"
)

// PricingTableCheck fails when the store has no entries.
func PricingTableCheck(store *pricing.Store) CheckFunc {
	return func(ctx context.Context) error {
		t := store.Table()
		if t == nil || t.Len() == 0 {
			return pricing.ErrEmptyTable
		}
		return nil
	}
}

// PricingFreshnessCheck fails when the current table was loaded more than
// maxAge ago. now is time.Now when nil.
func PricingFreshnessCheck(store *pricing.Store, maxAge time.Duration, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}

	return func(ctx context.Context) error {
		t := store.Table()
		if t == nil {
			return pricing.ErrEmptyTable
		}

		age := now().Sub(t.Metadata().LoadedAt)
		if age > maxAge {
			return fmt.Errorf("pricing table from %s is %s old (max %s)",
				t.Metadata().Source, age.Truncate(time.Second), maxAge)
		}
		return nil
	}
}

// PricingRefreshCheck fails when the most recent refresh attempt failed.
// The store keeps serving its previous table, so this reports rather than
// blocks.
func PricingRefreshCheck(store *pricing.Store) CheckFunc {
	return func(ctx context.Context) error {
		status := store.LastRefresh()
		if status == nil || status.Err == nil {
			return nil
		}
		return errors.Join(fmt.Errorf("last refresh from %s at %s failed",
			status.Source, status.At.Format(time.RFC3339)), status.Err)
	}
}

// RegisterPricingChecks registers the pricing checks on c. The freshness
// check is only added when maxAge is positive.
func RegisterPricingChecks(c *Checker, store *pricing.Store, maxAge time.Duration) {
	c.RegisterCheck(CheckPricingTable, PricingTableCheck(store))
	c.RegisterCheck(CheckPricingRefresh, PricingRefreshCheck(store))
	SetPricingFreshness(c, store, maxAge)
}

// SetPricingFreshness replaces the freshness check with one using maxAge, or
// removes it when maxAge is not positive.
func SetPricingFreshness(c *Checker, store *pricing.Store, maxAge time.Duration) {
	if maxAge <= 0 {
		c.UnregisterCheck(CheckPricingFreshness)
		return
	}
	c.RegisterCheck(CheckPricingFreshness, PricingFreshnessCheck(store, maxAge, nil))
}
