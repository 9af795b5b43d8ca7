package sources

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staysearch/internal/domain/search"
)

const MongoName = "mongo"

// Mongo reads catalog-shaped listings from a collection.
type Mongo struct {
	col   *mongo.Collection
	limit int64
}

func NewMongo(col *mongo.Collection, limit int64) *Mongo {
	if limit <= 0 {
		limit = 50
	}
	return &Mongo{col: col, limit: limit}
}

func (m *Mongo) Name() string { return MongoName }

func (m *Mongo) Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error) {
	filter := searchFilter(target, criteria)
	opts := options.Find().SetLimit(m.limit).SetSort(bson.D{{Key: "rating", Value: -1}})

	cursor, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]search.RawListing, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		fields, _ := plain(doc).(map[string]any)
		out = append(out, search.RawListing{Source: MongoName, Shape: search.ShapeCatalog, Fields: fields})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	return out, nil
}

// Details looks a listing up by its catalog id or its ObjectID.
func (m *Mongo) Details(ctx context.Context, id string) (search.RawListing, error) {
	var doc bson.M
	err := m.col.FindOne(ctx, detailsFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return search.RawListing{}, search.NotFound(id)
	}
	if err != nil {
		return search.RawListing{}, fmt.Errorf("mongo find one: %w", err)
	}
	fields, _ := plain(doc).(map[string]any)
	return search.RawListing{Source: MongoName, Shape: search.ShapeCatalog, Fields: fields}, nil
}

func detailsFilter(id string) bson.M {
	or := bson.A{bson.M{"id": id}}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		or = append(or, bson.M{"_id": oid})
	}
	return bson.M{"$or": or}
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, nil)
}

func locationFilter(target search.LocationTarget) bson.M {
	name := target.City
	if name == "" {
		name = target.DisplayName
	}
	exact := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(name)) + "$", Options: "i"}
	or := bson.A{
		bson.M{"location.city": exact},
		bson.M{"city": exact},
	}
	if target.City == "" {
		partial := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(name)), Options: "i"}
		or = append(or, bson.M{"title": partial})
	}
	filter := bson.M{"$or": or}
	if target.Country != "" {
		country := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(target.Country) + "$", Options: "i"}
		filter["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"location.country": country},
			bson.M{"country": country},
			bson.M{"location.country": bson.M{"$exists": false}, "country": bson.M{"$exists": false}},
		}}}
	}
	return filter
}

// searchFilter narrows locationFilter by capacity and nightly price. Prices are
// stored either as a number or as {amount, currency}.
func searchFilter(target search.LocationTarget, criteria search.SourceCriteria) bson.M {
	filter := locationFilter(target)
	if criteria.GuestsMin > 0 {
		filter["guests"] = bson.M{"$gte": criteria.GuestsMin}
	}
	if criteria.PriceMax > 0 {
		and, _ := filter["$and"].(bson.A)
		filter["$and"] = append(and, bson.M{"$or": bson.A{
			bson.M{"price": bson.M{"$lte": criteria.PriceMax}},
			bson.M{"price.amount": bson.M{"$lte": criteria.PriceMax}},
		}})
	}
	return filter
}

// plain converts driver types into the map/slice/scalar values the normalizer reads.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, plain(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, plain(item))
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	case primitive.DateTime:
		return t.Time().UTC().Format("2006-01-02T15:04:05Z07:00")
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return v
	}
}
