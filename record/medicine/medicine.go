package medicine

import (
	"fmt"
	"math"
	"strings"

	"github.com/uptrace/bun"

	"github.com/tanpawarit/record-agent/record"
)

const Collection = "medicines"

// Medicine ids are dense and 1-based. An id is only stable until another
// record is deleted, so callers must not cache ids across deletions.
type Medicine struct {
	bun.BaseModel `bun:"table:medicines,alias:m"`

	ID       int64   `bun:"id,pk" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	Price    float64 `bun:"price,notnull,default:0" json:"price"`
	Quantity int64   `bun:"quantity,notnull,default:0" json:"quantity"`
}

type Input struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", record.ErrInvalidInput)
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", record.ErrInvalidInput)
	}
	return nil
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price must be a finite number", record.ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must be >= 0", record.ErrInvalidInput)
	}
	return nil
}

// Patch carries the fields an update overwrites. Nil fields are left as-is.
type Patch struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int64   `json:"quantity,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Quantity == nil
}

func (p Patch) validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: no fields to update", record.ErrInvalidInput)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", record.ErrInvalidInput)
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", record.ErrInvalidInput)
	}
	return nil
}

// apply overwrites the supplied fields and returns the column names touched.
func (p Patch) apply(m *Medicine) []string {
	cols := make([]string, 0, 3)
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
		cols = append(cols, "name")
	}
	if p.Price != nil {
		m.Price = *p.Price
		cols = append(cols, "price")
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
		cols = append(cols, "quantity")
	}
	return cols
}

const (
	MsgListed  = "Medicines fetched successfully"
	MsgFetched = "Medicine fetched successfully"
	MsgCreated = "Medicine created successfully"
	MsgUpdated = "Medicine updated successfully"
	MsgDeleted = "Medicine deleted and IDs resequenced successfully"
)
