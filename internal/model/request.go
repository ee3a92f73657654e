package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyItems is reported when a request carries no cargo.
var ErrEmptyItems = errors.New("at least one cargo item is required")

// ValidationError describes a malformed request field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Constraints are the per-request placement rules.
type Constraints struct {
	AllowRotation   bool    `json:"allowRotation"`
	MaxStackHeight  float64 `json:"maxStackHeight,omitempty"`  // 0 = container height only
	MinSupportRatio float64 `json:"minSupportRatio,omitempty"` // 0 = no support check
	FragileOnTop    bool    `json:"fragileOnTop,omitempty"`    // nothing may rest on a fragile piece
}

// DefaultConstraints allows rotation and leaves stacking limited by the
// container height.
func DefaultConstraints() Constraints {
	return Constraints{AllowRotation: true}
}

func (c *Constraints) UnmarshalJSON(data []byte) error {
	type plain Constraints
	p := plain(DefaultConstraints())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Constraints(p)
	return nil
}

// Request is one placement invocation: a container and the cargo to load.
type Request struct {
	Container   Container   `json:"container"`
	Items       []CargoItem `json:"items"`
	Constraints Constraints `json:"constraints"`
}

// NewRequest builds a request with default constraints.
func NewRequest(container Container, items []CargoItem) Request {
	return Request{Container: container, Items: items, Constraints: DefaultConstraints()}
}

func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	p := plain{Constraints: DefaultConstraints()}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Request(p)
	return nil
}

// Validate checks the request before any placement is attempted. All
// problems are reported together; errors.As yields the first one.
func (r Request) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	c := r.Container
	if c.Length <= 0 || c.Width <= 0 || c.Height <= 0 {
		add("container", "dimensions must be positive, got %gx%gx%g", c.Length, c.Width, c.Height)
	}
	if c.MaxWeight <= 0 {
		add("container.maxWeight", "must be positive, got %g", c.MaxWeight)
	}
	if c.TareWeight < 0 {
		add("container.tareWeight", "must not be negative, got %g", c.TareWeight)
	}
	for i, a := range c.Axles {
		if a.Capacity <= 0 {
			add(fmt.Sprintf("container.axles[%d]", i), "capacity must be positive, got %g", a.Capacity)
		}
		if a.Position < 0 || a.Position > c.Length {
			add(fmt.Sprintf("container.axles[%d]", i), "position %g outside container length", a.Position)
		}
	}

	if len(r.Items) == 0 {
		errs = append(errs, &ValidationError{Field: "items", Message: ErrEmptyItems.Error(), Err: ErrEmptyItems})
	}
	seen := make(map[string]bool, len(r.Items))
	for i, it := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ID == "" {
			add(field, "id is required")
		} else if seen[it.ID] {
			add(field, "duplicate id %q", it.ID)
		}
		seen[it.ID] = true
		if it.Length <= 0 || it.Width <= 0 || it.Height <= 0 {
			add(field, "dimensions must be positive, got %gx%gx%g", it.Length, it.Width, it.Height)
		}
		if it.Weight < 0 {
			add(field, "weight must not be negative, got %g", it.Weight)
		}
		if it.Quantity < 1 {
			add(field, "quantity must be at least 1, got %d", it.Quantity)
		}
	}

	k := r.Constraints
	if k.MaxStackHeight < 0 {
		add("constraints.maxStackHeight", "must not be negative, got %g", k.MaxStackHeight)
	}
	if k.MinSupportRatio < 0 || k.MinSupportRatio > 1 {
		add("constraints.minSupportRatio", "must be within [0, 1], got %g", k.MinSupportRatio)
	}

	return errors.Join(errs...)
}

// TotalPieces returns the number of physical pieces after quantity expansion.
func (r Request) TotalPieces() int {
	n := 0
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}
