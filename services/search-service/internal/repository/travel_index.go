package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/travel/services/search-service/internal/document"
)

// ErrDocumentNotFound is returned when no travel is indexed under the id.
var ErrDocumentNotFound = errors.New("travel document not found")

// SearchQuery narrows ListAvailable. Zero values mean "no filter".
type SearchQuery struct {
	Text      string
	Country   string
	City      string
	MinPrice  float64
	MaxPrice  float64
	StartFrom string // YYYY-MM-DD, inclusive lower bound on start_date
	StartTo   string
	Limit     int64
}

// TravelIndex stores the denormalized travel projection in MongoDB.
type TravelIndex struct {
	col *mongo.Collection
}

func NewTravelIndex(db *mongo.Database) *TravelIndex {
	return &TravelIndex{col: db.Collection("travels")}
}

// EnsureIndexes creates the text and filter indexes the queries rely on.
func (r *TravelIndex) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "destinations.name", Value: "text"},
			{Key: "destinations.country", Value: "text"},
			{Key: "destinations.city", Value: "text"},
		}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	return err
}

// Upsert replaces the whole document keyed by travel id. Last write wins.
func (r *TravelIndex) Upsert(ctx context.Context, doc document.TravelDocument) error {
	doc.IndexedAt = time.Now().UTC()
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes the document if present. Deleting an unknown id is a no-op
// so redeliveries of the same fact stay harmless.
func (r *TravelIndex) Delete(ctx context.Context, travelID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": travelID})
	return err
}

func (r *TravelIndex) ByID(ctx context.Context, travelID string) (document.TravelDocument, error) {
	var doc document.TravelDocument
	err := r.col.FindOne(ctx, bson.M{"_id": travelID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrDocumentNotFound
	}
	return doc, err
}

// Search returns published travels matching the query, soonest first.
func (r *TravelIndex) Search(ctx context.Context, q SearchQuery) ([]document.TravelDocument, error) {
	filter := bson.M{"status": "PUBLISHED"}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	if q.Country != "" {
		filter["destinations.country"] = q.Country
	}
	if q.City != "" {
		filter["destinations.city"] = q.City
	}
	if price := rangeFilter(q.MinPrice, q.MaxPrice); price != nil {
		filter["price"] = price
	}
	if dates := dateFilter(q.StartFrom, q.StartTo); dates != nil {
		filter["start_date"] = dates
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: 1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := []document.TravelDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Available lists published travels with seats left starting on or after day.
func (r *TravelIndex) Available(ctx context.Context, day string) ([]document.TravelDocument, error) {
	filter := bson.M{
		"status":     "PUBLISHED",
		"start_date": bson.M{"$gte": day},
		"$expr":      bson.M{"$lt": bson.A{"$current_bookings", "$max_capacity"}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}).SetLimit(100)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := []document.TravelDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func rangeFilter(min, max float64) bson.M {
	m := bson.M{}
	if min > 0 {
		m["$gte"] = min
	}
	if max > 0 {
		m["$lte"] = max
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func dateFilter(from, to string) bson.M {
	m := bson.M{}
	if from != "" {
		m["$gte"] = from
	}
	if to != "" {
		m["$lte"] = to
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
