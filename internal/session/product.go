package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/storebot/internal/catalog"
)

// Scratch keys for the product flows.
const (
	keyProductName  = "p_name"
	keyProductDesc  = "p_desc"
	keyProductPrice = "p_price"
	keyProductCat   = "p_category"
	keyProductBrand = "p_brand"

	keyEditID    = "edit_id"
	keyEditField = "edit_field"
)

// newValueChoice is the select payload for the "enter a new value" branch
// of the category and brand steps.
const newValueChoice = "__new__"

func valueOptions(known []string, newLabel string) []Option {
	opts := make([]Option, 0, len(known)+1)
	for _, v := range known {
		opts = append(opts, Option{Label: v, Value: v})
	}
	opts = append(opts, Option{Label: newLabel, Value: newValueChoice})
	return opts
}

func fieldOptions() []Option {
	labels := map[string]string{
		catalog.FieldName:        "📝 Name",
		catalog.FieldDescription: "📄 Description",
		catalog.FieldPrice:       "💰 Price",
		catalog.FieldCategory:    "📁 Category",
		catalog.FieldBrand:       "🏷 Brand",
		catalog.FieldImage:       "🖼 Image",
	}
	opts := make([]Option, 0, len(catalog.Fields))
	for _, f := range catalog.Fields {
		opts = append(opts, Option{Label: labels[f], Value: f})
	}
	return opts
}

// StartAddProduct begins the product-creation flow. Admin only.
func (e *Engine) StartAddProduct(ctx context.Context, adminID int64) (Outcome, error) {
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}
	var out Outcome
	err := e.sessions.Do(adminID, func(s *Session) error {
		s.begin(FlowAddProduct, StepAwaitProductName)
		out = prompt("➕ *Adding New Product*\n\nEnter the *product name*:")
		return nil
	})
	return out, err
}

func (e *Engine) stepAddProduct(ctx context.Context, s *Session, adminID int64, in Input) (Outcome, error) {
	// The entry point gate can be bypassed by a stale session; re-check
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}

	switch s.Step {
	case StepAwaitProductName:
		if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
			return prompt("Enter the *product name*:"), nil
		}
		s.Scratch[keyProductName] = strings.TrimSpace(in.Text)
		s.Step = StepAwaitProductDesc
		return prompt("📄 Enter the *product description*:"), nil

	case StepAwaitProductDesc:
		if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
			return prompt("📄 Enter the *product description*:"), nil
		}
		s.Scratch[keyProductDesc] = strings.TrimSpace(in.Text)
		s.Step = StepAwaitProductPrice
		return prompt("💰 Enter the *price* (e.g. `19.99`):"), nil

	case StepAwaitProductPrice:
		if in.Kind != InputText {
			return prompt("💰 Enter the *price* (e.g. `19.99`):"), nil
		}
		price, err := catalog.ParsePrice(strings.TrimSpace(in.Text))
		if err != nil {
			// Same step, prior scratch intact
			return prompt("❌ Invalid price. Enter a non-negative number like `19.99`:"), nil
		}
		s.Scratch[keyProductPrice] = price.String()
		s.Step = StepAwaitProductCategory
		return e.categoryPrompt(ctx)

	case StepAwaitProductCategory:
		return e.stepValueOrNew(ctx, s, in, keyProductCat, "category", StepAwaitProductBrand, e.brandPrompt)

	case StepAwaitProductBrand:
		return e.stepValueOrNew(ctx, s, in, keyProductBrand, "brand", StepAwaitProductImage, func(context.Context) (Outcome, error) {
			return prompt("🖼 Send a *product photo*, or skip:", Option{Label: "⏭ Skip", Value: "skip"}), nil
		})

	case StepAwaitProductImage:
		var imageRef string
		switch {
		case in.Kind == InputImage:
			imageRef = in.ImageRef
		case in.Kind == InputSkip, in.Kind == InputSelect && in.Choice == "skip":
			imageRef = ""
		default:
			return prompt("🖼 Send a *product photo*, or skip:", Option{Label: "⏭ Skip", Value: "skip"}), nil
		}
		return e.finishAddProduct(ctx, s, imageRef)
	}
	return Outcome{}, ErrSessionExpired
}

func (e *Engine) categoryPrompt(ctx context.Context) (Outcome, error) {
	known, err := e.catalog.Categories(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list categories: %w", err)
	}
	return prompt("📁 Choose a *category* or add a new one:", valueOptions(known, "➕ New Category")...), nil
}

func (e *Engine) brandPrompt(ctx context.Context) (Outcome, error) {
	known, err := e.catalog.Brands(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list brands: %w", err)
	}
	return prompt("🏷 Choose a *brand* or add a new one:", valueOptions(known, "➕ New Brand")...), nil
}

// stepValueOrNew handles the category/brand pattern: pick a known value,
// or branch to free text via the new-value choice. Either path stores the
// value under key and advances to next.
func (e *Engine) stepValueOrNew(ctx context.Context, s *Session, in Input, key, noun string, next Step, nextPrompt func(context.Context) (Outcome, error)) (Outcome, error) {
	switch {
	case in.Kind == InputSelect && in.Choice == newValueChoice:
		return prompt(fmt.Sprintf("Type the new %s name:", noun)), nil
	case in.Kind == InputSelect && in.Choice != "":
		s.Scratch[key] = in.Choice
	case in.Kind == InputText && strings.TrimSpace(in.Text) != "":
		s.Scratch[key] = strings.TrimSpace(in.Text)
	default:
		return prompt(fmt.Sprintf("Choose a %s or type a new one:", noun)), nil
	}
	s.Step = next
	return nextPrompt(ctx)
}

func (e *Engine) finishAddProduct(ctx context.Context, s *Session, imageRef string) (Outcome, error) {
	name := s.Scratch[keyProductName]
	desc := s.Scratch[keyProductDesc]
	rawPrice := s.Scratch[keyProductPrice]
	category := s.Scratch[keyProductCat]
	brand := s.Scratch[keyProductBrand]
	if name == "" || rawPrice == "" || category == "" || brand == "" {
		return Outcome{}, ErrSessionExpired
	}
	price, err := catalog.ParsePrice(rawPrice)
	if err != nil {
		return Outcome{}, ErrSessionExpired
	}

	s.reset()
	p, err := e.catalog.Create(ctx, name, desc, price, category, brand, imageRef)
	if err != nil {
		return Outcome{}, fmt.Errorf("create product: %w", err)
	}
	return done(fmt.Sprintf("✅ *Product Added!*\n\n📝 *%s*\n💰 $%s\n📁 %s | 🏷 %s",
		p.Name, p.Price.StringFixed(2), p.Category, p.Brand)), nil
}

// StartEditProduct begins the single-field edit flow for an existing
// product. Admin only; unknown ids surface as not found.
func (e *Engine) StartEditProduct(ctx context.Context, adminID, productID int64) (Outcome, error) {
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}
	p, err := e.catalog.Get(ctx, productID)
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	err = e.sessions.Do(adminID, func(s *Session) error {
		s.begin(FlowEditProduct, StepAwaitEditField)
		s.Scratch[keyEditID] = strconv.FormatInt(productID, 10)
		out = prompt(fmt.Sprintf("✏️ *Editing:* %s\n\nWhich field do you want to change?", p.Name), fieldOptions()...)
		return nil
	})
	return out, err
}

func (e *Engine) stepEditProduct(ctx context.Context, s *Session, adminID int64, in Input) (Outcome, error) {
	if !e.IsAdmin(adminID) {
		return Outcome{}, ErrAccessDenied
	}

	switch s.Step {
	case StepAwaitEditField:
		if in.Kind != InputSelect {
			return prompt("Which field do you want to change?", fieldOptions()...), nil
		}
		field := in.Choice
		valid := false
		for _, f := range catalog.Fields {
			if f == field {
				valid = true
				break
			}
		}
		if !valid {
			return prompt("Which field do you want to change?", fieldOptions()...), nil
		}
		s.Scratch[keyEditField] = field
		s.Step = StepAwaitEditValue
		if field == catalog.FieldImage {
			return prompt("🖼 Send the *new product photo*:"), nil
		}
		return prompt(fmt.Sprintf("Enter the new *%s*:", field)), nil

	case StepAwaitEditValue:
		rawID := s.Scratch[keyEditID]
		field := s.Scratch[keyEditField]
		if rawID == "" || field == "" {
			return Outcome{}, ErrSessionExpired
		}
		productID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return Outcome{}, ErrSessionExpired
		}

		var value string
		switch field {
		case catalog.FieldImage:
			// An actual image is required; text re-prompts
			if in.Kind != InputImage {
				return prompt("🖼 Send the *new product photo*:"), nil
			}
			value = in.ImageRef
		case catalog.FieldPrice:
			if in.Kind != InputText {
				return prompt("Enter the new *price*:"), nil
			}
			if _, err := catalog.ParsePrice(strings.TrimSpace(in.Text)); err != nil {
				return prompt("❌ Invalid price. Enter a non-negative number like `19.99`:"), nil
			}
			value = strings.TrimSpace(in.Text)
		default:
			if in.Kind != InputText || strings.TrimSpace(in.Text) == "" {
				return prompt(fmt.Sprintf("Enter the new *%s*:", field)), nil
			}
			value = strings.TrimSpace(in.Text)
		}

		s.reset()
		p, err := e.catalog.UpdateField(ctx, productID, field, value)
		if err != nil {
			return Outcome{}, err
		}
		return done(fmt.Sprintf("✅ *Product Updated!*\n\n%s is now up to date.", p.Name)), nil
	}
	return Outcome{}, ErrSessionExpired
}
