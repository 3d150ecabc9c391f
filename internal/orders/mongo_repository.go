package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderLineDoc struct {
	ProductRef string               `bson:"product_ref"`
	Kind       string               `bson:"kind"`
	Name       string               `bson:"name"`
	Image      string               `bson:"image"`
	UnitPrice  primitive.Decimal128 `bson:"unit_price"`
	Quantity   int                  `bson:"quantity"`
}

type orderDoc struct {
	ID              string                 `bson:"_id"`
	BuyerID         string                 `bson:"buyer_id"`
	SellerID        string                 `bson:"seller_id"`
	GroupToken      string                 `bson:"group_token"`
	Items           []orderLineDoc         `bson:"items"`
	ShippingAddress domain.ShippingAddress `bson:"shipping_address"`
	PaymentMethod   string                 `bson:"payment_method"`
	ItemsPrice      primitive.Decimal128   `bson:"items_price"`
	ShippingPrice   primitive.Decimal128   `bson:"shipping_price"`
	TaxPrice        primitive.Decimal128   `bson:"tax_price"`
	TotalPrice      primitive.Decimal128   `bson:"total_price"`
	Status          string                 `bson:"status"`
	CreatedAt       time.Time              `bson:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at"`
}

func newOrderDoc(id domain.OrderID, p domain.OrderPayload, now time.Time) (*orderDoc, error) {
	doc := &orderDoc{
		ID:              id.String(),
		BuyerID:         p.BuyerID,
		SellerID:        p.SellerID,
		GroupToken:      p.GroupToken,
		Items:           make([]orderLineDoc, len(p.Items)),
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   p.PaymentMethod,
		Status:          string(domain.OrderStatusPending),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var err error
	for i, line := range p.Items {
		doc.Items[i] = orderLineDoc{
			ProductRef: line.ProductRef,
			Kind:       line.Kind.String(),
			Name:       line.Name,
			Image:      line.Image,
			Quantity:   line.Quantity,
		}
		if doc.Items[i].UnitPrice, err = mongodb.ToDecimal128(line.UnitPrice); err != nil {
			return nil, err
		}
	}
	if doc.ItemsPrice, err = mongodb.ToDecimal128(p.ItemsPrice); err != nil {
		return nil, err
	}
	if doc.ShippingPrice, err = mongodb.ToDecimal128(p.ShippingPrice); err != nil {
		return nil, err
	}
	if doc.TaxPrice, err = mongodb.ToDecimal128(p.TaxPrice); err != nil {
		return nil, err
	}
	if doc.TotalPrice, err = mongodb.ToDecimal128(p.TotalPrice); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *orderDoc) toDomain() (*domain.Order, error) {
	o := &domain.Order{
		ID: domain.OrderID(d.ID),
		OrderPayload: domain.OrderPayload{
			BuyerID:         d.BuyerID,
			SellerID:        d.SellerID,
			GroupToken:      d.GroupToken,
			Items:           make([]domain.OrderLine, len(d.Items)),
			ShippingAddress: d.ShippingAddress,
			PaymentMethod:   d.PaymentMethod,
		},
		Status:    domain.OrderStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	var err error
	for i, line := range d.Items {
		o.Items[i] = domain.OrderLine{
			ProductRef: line.ProductRef,
			Kind:       domain.ProductKind(line.Kind),
			Name:       line.Name,
			Image:      line.Image,
			Quantity:   line.Quantity,
		}
		if o.Items[i].UnitPrice, err = mongodb.FromDecimal128(line.UnitPrice); err != nil {
			return nil, err
		}
	}
	if o.ItemsPrice, err = mongodb.FromDecimal128(d.ItemsPrice); err != nil {
		return nil, err
	}
	if o.ShippingPrice, err = mongodb.FromDecimal128(d.ShippingPrice); err != nil {
		return nil, err
	}
	if o.TaxPrice, err = mongodb.FromDecimal128(d.TaxPrice); err != nil {
		return nil, err
	}
	if o.TotalPrice, err = mongodb.FromDecimal128(d.TotalPrice); err != nil {
		return nil, err
	}
	return o, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("orders"),
	}
}

func (m *MongoRepository) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error) {
	id := domain.OrderID(uuid.NewString())
	doc, err := newOrderDoc(id, payload, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to build order document: %w", err)
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateOrder
		}
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func (m *MongoRepository) GetOrderByID(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	var doc orderDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain()
}

func (m *MongoRepository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"buyer_id": buyerID})
}

func (m *MongoRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"seller_id": sellerID})
}

func (m *MongoRepository) ListOrdersByGroupToken(ctx context.Context, groupToken string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"group_token": groupToken})
}

func (m *MongoRepository) MarkForReview(ctx context.Context, ids []domain.OrderID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make(bson.A, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	res, err := m.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": raw}},
		bson.M{"$set": bson.M{
			"status":     string(domain.OrderStatusNeedsReview),
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark orders for review: %w", err)
	}
	return res.ModifiedCount, nil
}

func (m *MongoRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []*domain.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		o, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_token", Value: 1}, {Key: "seller_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
