package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// PurchaseRepository implements ports.PurchaseRepository with a multi-document
// transaction. Transactions require a replica set or sharded cluster.
type PurchaseRepository struct {
	db       *mongo.Database
	books    *mongo.Collection
	archived *mongo.Collection
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(db *mongo.Database) ports.PurchaseRepository {
	return &PurchaseRepository{
		db:       db,
		books:    db.Collection(collectionBooks),
		archived: db.Collection(collectionPurchases),
	}
}

type mongoPurchase struct {
	ID           int64   `bson:"_id"`
	Name         string  `bson:"name"`
	Price        float64 `bson:"price"`
	Author       string  `bson:"author"`
	Quantity     int     `bson:"quantity"`
	ArchivedDate int64   `bson:"archived_date"`
	UserID       string  `bson:"user_id"`
}

// Purchase decrements stock with a conditional $inc (count >= quantity) and inserts
// the archive record inside one transaction. The archive id is taken from the
// counter outside the transaction, so a rejected purchase leaves a gap.
func (r *PurchaseRepository) Purchase(ctx context.Context, order ports.PurchaseOrder) (*domain.ArchivedPurchase, int, error) {
	id, err := nextID(ctx, r.db, collectionPurchases)
	if err != nil {
		return nil, 0, err
	}

	sess, err := r.db.Client().StartSession()
	if err != nil {
		return nil, 0, fmt.Errorf("start session: %w", classify(err))
	}
	defer sess.EndSession(ctx)

	var (
		rec       *domain.ArchivedPurchase
		remaining int
	)
	txnOpts := options.Transaction().SetWriteConcern(writeconcern.Majority())
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var mb mongoBook
		err := r.books.FindOneAndUpdate(sc,
			bson.M{"name": order.BookName, "count": bson.M{"$gte": order.Quantity}},
			bson.M{"$inc": bson.M{"count": -order.Quantity}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&mb)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cErr := r.books.CountDocuments(sc, bson.M{"name": order.BookName})
			if cErr != nil {
				return nil, cErr
			}
			if n == 0 {
				return nil, domain.ErrBookNotFound
			}
			return nil, domain.ErrInsufficientStock
		}
		if err != nil {
			return nil, err
		}

		doc := mongoPurchase{
			ID:           id,
			Name:         mb.Name,
			Price:        mb.Price,
			Author:       mb.Author,
			Quantity:     order.Quantity,
			ArchivedDate: order.At.UTC().UnixMilli(),
			UserID:       order.UserID,
		}
		if _, err := r.archived.InsertOne(sc, doc); err != nil {
			return nil, err
		}

		rec = &domain.ArchivedPurchase{
			ID:           doc.ID,
			Name:         doc.Name,
			Price:        doc.Price,
			Author:       doc.Author,
			Quantity:     doc.Quantity,
			ArchivedDate: order.At.UTC(),
			UserID:       doc.UserID,
		}
		remaining = mb.Count
		return nil, nil
	}, txnOpts)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("purchase %q: %w", order.BookName, classify(err))
	}
	return rec, remaining, nil
}
