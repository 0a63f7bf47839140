package models

// Basket is a shared shopping list. The numeric ID is internal; clients
// only ever see the short code.
type Basket struct {
	ID   int64
	Code string
}

// Participant is a named member of one basket. Names are free text and
// not unique; two participants may share a name.
type Participant struct {
	ID       int64
	BasketID int64
	Name     string
}

// Item is a product entry in a basket. AddedBy is informational free text
// and carries no referential integrity to participants.
type Item struct {
	ID       int64   `json:"id"`
	Product  string  `json:"product"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	AddedBy  string  `json:"added_by"`
}
