package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func FromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

// DecimalFromRaw reads a price that older documents may hold as a double,
// an integer or a string instead of a decimal128.
func DecimalFromRaw(rv bson.RawValue) (decimal.Decimal, error) {
	switch rv.Type {
	case bsontype.Decimal128:
		return FromDecimal128(rv.Decimal128())
	case bsontype.Double:
		return decimal.NewFromFloat(rv.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(rv.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(rv.Int64()), nil
	case bsontype.String:
		return decimal.NewFromString(rv.StringValue())
	case 0, bsontype.Null, bsontype.Undefined:
		return decimal.Zero, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported price type %s", rv.Type)
	}
}

// IDString renders an _id that is either an ObjectID or a plain string.
func IDString(rv bson.RawValue) string {
	if oid, ok := rv.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := rv.StringValueOK(); ok {
		return s
	}
	return rv.String()
}

// IDFilter matches a ref against both its ObjectID and string forms.
func IDFilter(ref string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, ref}}}
	}
	return bson.M{"_id": ref}
}
