package automation

import (
	"context"
	"fmt"
	"log/slog"

	"grocer-go/domain/platform"
	"grocer-go/domain/session"
)

const phaseCart = "cart"

// CartResult is the outcome of a cart batch.
type CartResult struct {
	CartDetails string
	FinalPrice  float64
	Products    []ProductOutcome
	Snapshot    session.Snapshot
}

// CartAutomator adds products to a logged-in cart and reads back the total.
type CartAutomator struct {
	opts *Options
}

// AddProducts restores the record's identity and adds each product URL in order.
// variants maps a product URL to the desired variant text. Variant selection is
// best-effort; any other failure aborts the batch.
func (a *CartAutomator) AddProducts(ctx context.Context, record *session.Record, productURLs []string, variants map[string]string) (*CartResult, error) {
	cfg, err := a.opts.Platforms.Lookup(record.Platform)
	if err != nil {
		return nil, err
	}
	sel := cfg.Selectors

	logger := a.opts.Logger.With("phase", phaseCart, "session_id", record.ID, "platform", record.Platform)

	bs, err := openBrowserSession(ctx, a.opts, phaseCart)
	if err != nil {
		return nil, err
	}
	defer bs.Close()

	if err := bs.Restore(ctx, record.Cookies); err != nil {
		return nil, err
	}
	anchor := record.URL
	if anchor == "" {
		anchor = cfg.BaseURL
	}
	if err := bs.Navigate(ctx, anchor); err != nil {
		return nil, err
	}

	result := &CartResult{Products: make([]ProductOutcome, 0, len(productURLs))}
	for _, url := range productURLs {
		outcome, err := a.addProduct(ctx, bs, sel, url, variants[url], logger)
		if err != nil {
			return nil, err
		}
		result.Products = append(result.Products, outcome)
	}

	if err := bs.Navigate(ctx, sel.CartPage); err != nil {
		return nil, err
	}
	if err := bs.WaitVisible(ctx, sel.PriceDetails); err != nil {
		return nil, err
	}
	details, err := bs.Text(ctx, sel.PriceDetails)
	if err != nil {
		return nil, err
	}
	result.CartDetails = details
	result.FinalPrice = ExtractPrice(details)

	snap, err := bs.Capture(ctx)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap

	logger.Info("Cart populated", "products", len(result.Products), "final_price", result.FinalPrice)
	return result, nil
}

func (a *CartAutomator) addProduct(ctx context.Context, bs *BrowserSession, sel platform.Selectors, url, variant string, logger *slog.Logger) (ProductOutcome, error) {
	outcome := ProductOutcome{URL: url, Variant: variant, VariantStatus: VariantNotRequested}

	if err := bs.Navigate(ctx, url); err != nil {
		return outcome, err
	}

	switch {
	case variant == "":
	case !sel.SupportsVariants():
		outcome.VariantStatus = VariantUnsupported
	default:
		if err := a.selectVariant(ctx, bs, sel, variant); err != nil {
			// A caller cancellation is not a variant problem.
			if ctx.Err() != nil {
				return outcome, ctx.Err()
			}
			outcome.VariantStatus = VariantSkipped
			outcome.Reason = err.Error()
			logger.Warn("Variant selection skipped", "url", url, "variant", variant, "reason", err)
		} else {
			outcome.VariantStatus = VariantSelected
		}
	}

	if err := bs.WaitPresent(ctx, sel.AddToCartButton); err != nil {
		return outcome, err
	}
	if err := bs.Click(ctx, sel.AddToCartButton); err != nil {
		return outcome, err
	}
	outcome.Added = true

	if err := a.opts.Settler.Settle(ctx, SettleAfterAddToCart); err != nil {
		return outcome, newStepError(phaseCart, "settle", "", err)
	}
	return outcome, nil
}

func (a *CartAutomator) selectVariant(ctx context.Context, bs *BrowserSession, sel platform.Selectors, variant string) error {
	if err := bs.Click(ctx, sel.VariantSelector); err != nil {
		return err
	}
	if err := bs.WaitVisible(ctx, sel.VariantContainer); err != nil {
		return err
	}
	// The container renders before its options are populated.
	if err := a.opts.Settler.Settle(ctx, SettleVariantOpen); err != nil {
		return err
	}

	options, err := bs.Options(ctx, sel.VariantOption)
	if err != nil {
		return err
	}
	i, ok := MatchVariant(options, variant)
	if !ok {
		return fmt.Errorf("%w %q", errNoVariantMatch, variant)
	}
	if err := bs.ClickNth(ctx, sel.VariantOption, options[i].Index); err != nil {
		return err
	}
	return a.opts.Settler.Settle(ctx, SettleVariantSelect)
}
