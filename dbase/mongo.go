// Package dbase persists accepted pipeline features to MongoDB. The
// collection carries a JSON-schema validator and a 2dsphere index;
// features are stored in EPSG:4326 and upserted by (name, geometry).
package dbase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twpayne/go-geos"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/gasline-tools/gispipeline/config"
	"github.com/gasline-tools/gispipeline/crs"
	"github.com/gasline-tools/gispipeline/geometry"
	"github.com/gasline-tools/gispipeline/layer"
)

const (
	serverSelectionTimeout = 5 * time.Second
	collectionName         = "features"
	storageCRS             = "EPSG:4326"
)

// Connect dials MongoDB with a short server-selection timeout and pings
// before returning, so a down database fails fast instead of at the
// first write.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(serverSelectionTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Sink writes feature records into one validated collection. Not safe
// for concurrent use; callers keep it out of worker goroutines.
type Sink struct {
	Log  *zap.Logger
	coll *mongo.Collection
}

var featureSchema = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "date", "psi", "material", "geometry"},
		"properties": bson.M{
			"name":     bson.M{"bsonType": "string"},
			"date":     bson.M{"bsonType": []string{"date", "null"}},
			"psi":      bson.M{"bsonType": []string{"double", "int"}},
			"material": bson.M{"bsonType": "string"},
			"geometry": bson.M{"bsonType": "object"},
		},
	},
}

// NewSink ensures the features collection exists with its schema
// validator (creating it, or collMod on an existing one) and a 2dsphere
// index on geometry.
func NewSink(ctx context.Context, client *mongo.Client, cfg *config.Config, log *zap.Logger) (*Sink, error) {
	db := client.Database(cfg.DBName)
	err := db.CreateCollection(ctx, collectionName,
		options.CreateCollection().SetValidator(featureSchema))
	if err != nil {
		// Collection already there: refresh the validator instead.
		res := db.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: collectionName},
			{Key: "validator", Value: featureSchema},
		})
		if res.Err() != nil {
			return nil, fmt.Errorf("install schema validator: %w", res.Err())
		}
	}

	coll := db.Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure 2dsphere index: %w", err)
	}
	return &Sink{Log: log, coll: coll}, nil
}

// geometryDoc renders a geometry as an ordered GeoJSON document so that
// subdocument equality in find filters is deterministic.
func geometryDoc(g *geos.Geom) (bson.D, error) {
	var gj struct {
		Type        string      `json:"type"`
		Coordinates interface{} `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(g.ToGeoJSON(-1)), &gj); err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return bson.D{
		{Key: "type", Value: gj.Type},
		{Key: "coordinates", Value: gj.Coordinates},
	}, nil
}

// UpsertFeature stores one record, reprojected to EPSG:4326. Features
// with non-finite coordinates are skipped with a warning. An existing
// (name, geometry) document is updated in the fields that changed;
// otherwise a new document is inserted.
func (s *Sink) UpsertFeature(ctx context.Context, rec layer.FeatureRecord, sourceCRS string) error {
	if rec.Geom == nil {
		s.Log.Warn("feature has no geometry, not persisting", zap.String("name", rec.Name))
		return nil
	}
	switch rec.Geom.TypeID() {
	case geos.TypeIDPoint, geos.TypeIDLineString, geos.TypeIDPolygon:
	default:
		return fmt.Errorf("feature %q: unsupported geometry type %s",
			rec.Name, layer.TypeName(rec.Geom.TypeID()))
	}

	fixed := geometry.Fix(rec.Geom, s.Log)
	if fixed == nil {
		s.Log.Warn("feature geometry unrepairable, not persisting", zap.String("name", rec.Name))
		return nil
	}
	stored, err := crs.ReprojectGeom(fixed, sourceCRS, storageCRS)
	if err != nil {
		return fmt.Errorf("feature %q: %w", rec.Name, err)
	}
	if !geometry.IsFinite(stored) {
		s.Log.Warn("feature has non-finite coordinates, not persisting", zap.String("name", rec.Name))
		return nil
	}

	geomDoc, err := geometryDoc(stored)
	if err != nil {
		return fmt.Errorf("feature %q: %w", rec.Name, err)
	}

	filter := bson.D{{Key: "name", Value: rec.Name}, {Key: "geometry", Value: geomDoc}}
	var existing struct {
		Date     *time.Time `bson:"date"`
		PSI      float64    `bson:"psi"`
		Material string     `bson:"material"`
	}
	err = s.coll.FindOne(ctx, filter).Decode(&existing)
	switch {
	case err == mongo.ErrNoDocuments:
		doc := bson.D{
			{Key: "name", Value: rec.Name},
			{Key: "date", Value: dateValue(rec)},
			{Key: "psi", Value: rec.PSI},
			{Key: "material", Value: rec.Material},
			{Key: "geometry", Value: geomDoc},
		}
		if _, err := s.coll.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("insert feature %q: %w", rec.Name, err)
		}
		s.Log.Info("inserted feature", zap.String("name", rec.Name))
		return nil
	case err != nil:
		return fmt.Errorf("lookup feature %q: %w", rec.Name, err)
	}

	set := bson.D{}
	if !sameDate(existing.Date, rec.Date) {
		set = append(set, bson.E{Key: "date", Value: dateValue(rec)})
	}
	if existing.PSI != rec.PSI {
		set = append(set, bson.E{Key: "psi", Value: rec.PSI})
	}
	if existing.Material != rec.Material {
		set = append(set, bson.E{Key: "material", Value: rec.Material})
	}
	if len(set) == 0 {
		return nil
	}
	if _, err := s.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}}); err != nil {
		return fmt.Errorf("update feature %q: %w", rec.Name, err)
	}
	s.Log.Info("updated feature", zap.String("name", rec.Name), zap.Int("fields", len(set)))
	return nil
}

// dateValue maps the zero-time "date unknown" sentinel to a null date.
func dateValue(rec layer.FeatureRecord) interface{} {
	if rec.Date.IsZero() {
		return nil
	}
	return rec.Date.UTC()
}

func sameDate(stored *time.Time, date time.Time) bool {
	if stored == nil {
		return date.IsZero()
	}
	return stored.UTC().Equal(date.UTC())
}
