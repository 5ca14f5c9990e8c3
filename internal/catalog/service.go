// internal/catalog/service.go
package catalog

import "context"

// Service defines the interface for the catalog service.
type Service interface {
	ListBooks(ctx context.Context) ([]*Book, error)
	AvailableBooks(ctx context.Context) ([]*Book, error)
	SearchBooks(ctx context.Context, query string) ([]*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	AddBook(ctx context.Context, in BookInput) (*Book, error)
	UpdateBook(ctx context.Context, id int64, in BookInput) error
	DeleteBook(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	ISBNExists(ctx context.Context, isbn string, excludeID int64) (bool, error)
}
