package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"book-stock-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var (
	// ErrBookNotFound means no book exists for the given ISBN.
	ErrBookNotFound = errors.New("book not found")
	// ErrInsufficientStock means the decrement would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity means the sale's quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetBookByISBN retrieves a book by its ISBN
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT * FROM books WHERE isbn = $1", isbn)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, isbn)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
