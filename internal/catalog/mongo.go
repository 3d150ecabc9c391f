package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/internal/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SeedsCollection    = "seeds"
	MachinesCollection = "machines"
	ProductsCollection = "products"
)

// productDoc covers the fields shared by the three sub-catalogs. Prices and
// ids are kept raw because older listings store them with different types.
type productDoc struct {
	ID       bson.RawValue `bson:"_id"`
	Name     string        `bson:"name"`
	Image    string        `bson:"image"`
	FarmerID string        `bson:"farmer_id"`
	Price    bson.RawValue `bson:"price"`

	Variety      string `bson:"variety,omitempty"`
	Season       string `bson:"season,omitempty"`
	Brand        string `bson:"brand,omitempty"`
	ForRent      bool   `bson:"for_rent,omitempty"`
	Category     string `bson:"category,omitempty"`
	CountInStock int    `bson:"count_in_stock,omitempty"`
}

// MongoCatalog resolves refs against the seeds, machines and products
// collections. Refs are unique across collections, so the first hit wins.
type MongoCatalog struct {
	seeds    *mongo.Collection
	machines *mongo.Collection
	goods    *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{
		seeds:    db.Collection(SeedsCollection),
		machines: db.Collection(MachinesCollection),
		goods:    db.Collection(ProductsCollection),
	}
}

func (c *MongoCatalog) LookupProduct(ctx context.Context, ref string) (domain.Product, error) {
	sources := []struct {
		coll *mongo.Collection
		kind domain.ProductKind
	}{
		{c.seeds, domain.KindSeed},
		{c.machines, domain.KindMachine},
		{c.goods, domain.KindConsumerGood},
	}

	for _, src := range sources {
		var doc productDoc
		err := src.coll.FindOne(ctx, mongodb.IDFilter(ref)).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find %s %s: %w", src.kind, ref, err)
		}
		return toProduct(src.kind, doc)
	}

	return nil, ErrProductNotFound
}

func toProduct(kind domain.ProductKind, doc productDoc) (domain.Product, error) {
	id := mongodb.IDString(doc.ID)
	price, err := mongodb.DecimalFromRaw(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}

	switch kind {
	case domain.KindSeed:
		return domain.Seed{
			ID:       id,
			Name:     doc.Name,
			Image:    doc.Image,
			FarmerID: doc.FarmerID,
			Price:    price,
			Variety:  doc.Variety,
			Season:   doc.Season,
		}, nil
	case domain.KindMachine:
		return domain.Machine{
			ID:       id,
			Name:     doc.Name,
			Image:    doc.Image,
			FarmerID: doc.FarmerID,
			Price:    price,
			Brand:    doc.Brand,
			ForRent:  doc.ForRent,
		}, nil
	case domain.KindConsumerGood:
		return domain.ConsumerGood{
			ID:           id,
			Name:         doc.Name,
			Image:        doc.Image,
			FarmerID:     doc.FarmerID,
			Price:        price,
			Category:     doc.Category,
			CountInStock: doc.CountInStock,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (c *MongoCatalog) CreateIndexes(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{c.seeds, c.machines, c.goods} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "farmer_id", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}
