package models

import "time"

// Book represents a catalog entry. The catalog service owns creation and
// deletion; this service only reads books and decrements their stock.
type Book struct {
	ISBN      string    `db:"isbn" json:"isbn"`
	Title     string    `db:"title" json:"title"`
	Stock     int       `db:"stock" json:"stock"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Reconciliation statuses
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusError     = "ERROR"
)

// SaleReconciliation records the terminal outcome of one sale. A row is
// written once per sale id; committed rows are always terminal because the
// reservation and the outcome commit in the same transaction.
type SaleReconciliation struct {
	SaleID       string     `db:"sale_id" json:"sale_id"`
	Status       string     `db:"status" json:"status"`
	Message      string     `db:"message" json:"message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ReconciledAt *time.Time `db:"reconciled_at" json:"reconciled_at,omitempty"`
}

// UnprocessedSale is one entry of the external sales service's unprocessed
// list. The JSON field names are that service's wire contract.
type UnprocessedSale struct {
	ID       int64  `json:"id"`
	BookISBN string `json:"isbnLibro"`
	Quantity int    `json:"cantidad"`
}
