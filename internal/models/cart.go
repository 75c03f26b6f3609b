package models

// CartItem is one line of the shopper's cart as last confirmed or optimistically applied.
type CartItem struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	AvailableStock int     `json:"available_stock"`
	// Version increments on every local mutation. A rollback only applies
	// when the version still matches the one it was taken at.
	Version int64 `json:"version"`
}

// Cart is the snapshot kept per session.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Find returns the index of item id, or -1.
func (c *Cart) Find(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}
