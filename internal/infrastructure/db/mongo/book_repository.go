package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/library-system/internal/core/domain"
)

type BookRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{db: db, col: db.Collection(collectionBooks)}
}

type mongoBook struct {
	ID     int64   `bson:"_id"`
	Name   string  `bson:"name"`
	Price  float64 `bson:"price"`
	Author string  `bson:"author"`
	Count  int     `bson:"count"`
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mb mongoBook
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&mb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", classify(err))
	}
	return mb.toDomain(), nil
}

// SearchByName matches fragment literally anywhere in the name, ignoring case.
func (r *BookRepository) SearchByName(ctx context.Context, fragment string) ([]*domain.Book, error) {
	return r.find(ctx, bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(fragment), Options: "i"}})
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionBooks)
	if err != nil {
		return nil, err
	}
	doc := fromDomainBook(book)
	doc.ID = id

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrBookExists
		}
		return nil, fmt.Errorf("insert book: %w", classify(err))
	}
	return doc.toDomain(), nil
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": book.ID}, fromDomainBook(book))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrBookExists
		}
		return fmt.Errorf("update book: %w", classify(err))
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete book: %w", classify(err))
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) find(ctx context.Context, filter bson.M) ([]*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find books: %w", classify(err))
	}
	var docs []mongoBook
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", classify(err))
	}

	out := make([]*domain.Book, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func fromDomainBook(b *domain.Book) mongoBook {
	return mongoBook{ID: b.ID, Name: b.Name, Price: b.Price, Author: b.Author, Count: b.Count}
}

func (mb *mongoBook) toDomain() *domain.Book {
	return &domain.Book{ID: mb.ID, Name: mb.Name, Price: mb.Price, Author: mb.Author, Count: mb.Count}
}
