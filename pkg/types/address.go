package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery destination captured at checkout,
// stored as a jsonb column on the order.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Phone    string `json:"phone"`
}

// requiredShippingFields is the fixed field set an order submission must carry.
var requiredShippingFields = []struct {
	name  string
	value func(ShippingAddress) string
}{
	{"full_name", func(a ShippingAddress) string { return a.FullName }},
	{"address", func(a ShippingAddress) string { return a.Address }},
	{"city", func(a ShippingAddress) string { return a.City }},
	{"district", func(a ShippingAddress) string { return a.District }},
	{"phone", func(a ShippingAddress) string { return a.Phone }},
}

// MissingFields lists the required fields that are empty, in a stable order.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	for _, field := range requiredShippingFields {
		if strings.TrimSpace(field.value(a)) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Value marshals the address into jsonb.
func (a ShippingAddress) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the jsonb column.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
}
