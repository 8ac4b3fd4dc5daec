package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/librarium/internal/app/models"
)

// BookStore is the part of the book repository the seeder needs
type BookStore interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, book *appModels.Book) error
}

// DefaultBooks stocks an empty catalog
var DefaultBooks = []appModels.Book{
	{Title: "1984", Author: "George Orwell"},
	{Title: "Animal Farm", Author: "George Orwell"},
	{Title: "The Art of War", Author: "Sun Tzu"},
	{Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien"},
	{Title: "Romeo and Juliet", Author: "William Shakespeare"},
	{Title: "The Three Musketeers", Author: "Alexandre Dumas"},
	{Title: "Pride and Prejudice", Author: "Jane Austen"},
	{Title: "Dune", Author: "Frank Herbert"},
}

// CreateDefaultData inserts DefaultBooks when the catalog is empty. A failing
// book does not stop the others; all failures are returned joined.
func CreateDefaultData(ctx context.Context, books BookStore, lgr zerolog.Logger) error {
	count, err := books.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		lgr.Debug().Int64("books", count).Msg("Catalog already stocked, skipping default data")
		return nil
	}

	lgr.Info().Int("books", len(DefaultBooks)).Msg("Creating default catalog...")
	var finalErr error
	for _, b := range DefaultBooks {
		book := b
		book.Availability = true
		if err := books.Create(ctx, &book); err != nil {
			lgr.Error().Err(err).Str("title", book.Title).Msg("Error creating default book")
			finalErr = errors.Join(finalErr, err)
		}
	}
	return finalErr
}
