package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Zulfatok/mael/internal/core/ports"
)

// ProbeCapabilities inspects the users collection once at startup and reports
// which optional fields the deployed schema carries. The result is passed
// explicitly into the services that care and is never re-probed; restarting
// the process is the only invalidation.
func ProbeCapabilities(ctx context.Context, db *mongo.Database) (ports.SchemaCapabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// An empty deployment supports everything this code writes.
	caps := ports.SchemaCapabilities{PerUserIterations: true}

	// A validator that omits password_iterations pins the schema to the
	// legacy shape; in that case the field must stay implicit.
	specs, err := db.RunCommand(ctx, bson.D{
		{Key: "listCollections", Value: 1},
		{Key: "filter", Value: bson.M{"name": collectionUsers}},
	}).Raw()
	if err != nil {
		return caps, nil
	}

	batch, err := specs.LookupErr("cursor", "firstBatch")
	if err != nil {
		return caps, nil
	}
	values, err := batch.Array().Values()
	if err != nil || len(values) == 0 {
		return caps, nil
	}

	props, err := values[0].Document().LookupErr(
		"options", "validator", "$jsonSchema", "properties")
	if err != nil {
		// No validator configured: the collection is schemaless, the
		// optional field can always be written.
		return caps, nil
	}
	if _, err := props.Document().LookupErr("password_iterations"); err != nil {
		caps.PerUserIterations = false
	}
	return caps, nil
}
