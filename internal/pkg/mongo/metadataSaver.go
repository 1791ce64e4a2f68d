package mongo

import (
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MetadataSaver saves transcription metadata to mongo db
type MetadataSaver struct {
	SessionProvider *SessionProvider
}

// NewMetadataSaver creates MetadataSaver instance
func NewMetadataSaver(sessionProvider *SessionProvider) (*MetadataSaver, error) {
	f := MetadataSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// Save upserts metadata record keyed by job ID.
// A redelivered queue message rewrites the same record, never adds a second one.
func (ms *MetadataSaver) Save(data *persistence.Metadata) error {
	cmdapp.Log.Infof("Saving metadata for job %s", data.JobID)

	c, ctx, cancel, err := newColl(ms.SessionProvider, metadataTable)
	if err != nil {
		return err
	}
	defer cancel()

	err = c.FindOneAndUpdate(ctx, bson.M{"jobID": sanitize(data.JobID)},
		bson.M{"$set": bson.M{"transcriptionKey": data.TranscriptionKey,
			"speakersDetected": data.SpeakersDetected, "confidenceScore": data.Confidence,
			"languageDetected": data.Language}},
		options.FindOneAndUpdate().SetUpsert(true)).Err()
	if err != nil && err != mgo.ErrNoDocuments {
		return errors.Wrap(err, "can't upsert metadata")
	}
	return nil
}

// Get retrieves metadata record by job ID, returns nil if absent
func (ms *MetadataSaver) Get(jobID string) (*persistence.Metadata, error) {
	c, ctx, cancel, err := newColl(ms.SessionProvider, metadataTable)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var res persistence.Metadata
	err = c.FindOne(ctx, bson.M{"jobID": sanitize(jobID)}).Decode(&res)
	if err == mgo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't get metadata record")
	}
	return &res, nil
}
