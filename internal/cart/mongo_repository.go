package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	BuyerID   string             `bson:"buyer_id"`
	Items     []itemDoc          `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type itemDoc struct {
	ProductRef string               `bson:"product_ref"`
	Name       string               `bson:"name"`
	Image      string               `bson:"image"`
	UnitPrice  primitive.Decimal128 `bson:"unit_price"`
	Quantity   int                  `bson:"quantity"`
	AddedAt    time.Time            `bson:"added_at"`
}

func toItemDoc(item domain.CartItem) (itemDoc, error) {
	price, err := mongodb.ToDecimal128(item.UnitPrice)
	if err != nil {
		return itemDoc{}, err
	}
	return itemDoc{
		ProductRef: item.ProductRef,
		Name:       item.Name,
		Image:      item.Image,
		UnitPrice:  price,
		Quantity:   item.Quantity,
		AddedAt:    item.AddedAt,
	}, nil
}

func (d cartDoc) toDomain() (*domain.Cart, error) {
	c := &domain.Cart{
		BuyerID:   d.BuyerID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := mongodb.FromDecimal128(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, domain.CartItem{
			ProductRef: it.ProductRef,
			BuyerID:    d.BuyerID,
			Name:       it.Name,
			Image:      it.Image,
			UnitPrice:  price,
			Quantity:   it.Quantity,
			AddedAt:    it.AddedAt,
		})
	}
	return c, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, buyerID string) (*domain.Cart, error) {
	var doc cartDoc

	err := m.collection.FindOne(ctx, bson.M{"buyer_id": buyerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain()
}

// AddItem adds item.Quantity units to the buyer's line for item.ProductRef,
// creating the line (and the cart) on first use. The increment and the
// MaxQuantity cap are applied in a single update, so concurrent adds of the
// same product never lose units. Going over the cap returns ErrInvalidQuantity.
func (m *MongoRepository) AddItem(ctx context.Context, buyerID string, item domain.CartItem) error {
	if item.Quantity < 1 || item.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	now := time.Now()
	item.AddedAt = now
	doc, err := toItemDoc(item)
	if err != nil {
		return err
	}

	// The push only matches carts without the line; when the line appears
	// concurrently the upsert hits the unique buyer_id index and the
	// increment is retried.
	for attempt := 0; attempt < 2; attempt++ {
		res, err := m.collection.UpdateOne(ctx,
			bson.M{
				"buyer_id": buyerID,
				"items": bson.M{"$elemMatch": bson.M{
					"product_ref": item.ProductRef,
					"quantity":    bson.M{"$lte": MaxQuantity - item.Quantity},
				}},
			},
			bson.M{
				"$inc": bson.M{"items.$.quantity": item.Quantity},
				"$set": bson.M{
					"items.$.name":       doc.Name,
					"items.$.image":      doc.Image,
					"items.$.unit_price": doc.UnitPrice,
					"items.$.added_at":   now,
					"updated_at":         now,
				},
			},
		)
		if err != nil {
			return fmt.Errorf("failed to increment item: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		_, err = m.collection.UpdateOne(ctx,
			bson.M{"buyer_id": buyerID, "items.product_ref": bson.M{"$ne": item.ProductRef}},
			bson.M{
				"$push":        bson.M{"items": doc},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"created_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to add new item: %w", err)
		}
		return nil
	}

	// the line exists and the increment would exceed MaxQuantity
	return ErrInvalidQuantity
}

func (m *MongoRepository) UpdateItemQuantity(ctx context.Context, buyerID, productRef string, quantity int) error {
	filter := bson.M{
		"buyer_id":          buyerID,
		"items.product_ref": productRef,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_ref": productRef},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoRepository) RemoveItem(ctx context.Context, buyerID, productRef string) error {
	filter := bson.M{"buyer_id": buyerID, "items.product_ref": productRef}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_ref": productRef},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, buyerID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"buyer_id": buyerID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "buyer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
