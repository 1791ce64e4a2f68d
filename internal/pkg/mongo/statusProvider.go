package mongo

import (
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
)

// StatusProvider provides transcription job record from mongo db
type StatusProvider struct {
	SessionProvider *SessionProvider
}

// NewStatusProvider creates StatusProvider instance
func NewStatusProvider(sessionProvider *SessionProvider) (*StatusProvider, error) {
	f := StatusProvider{SessionProvider: sessionProvider}
	return &f, nil
}

// Get retrieves job record from DB, returns nil if ID is not known
func (sp *StatusProvider) Get(id string) (*persistence.Job, error) {
	cmdapp.Log.Infof("Retrieving job %s", id)

	c, ctx, cancel, err := newColl(sp.SessionProvider, jobTable)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var res persistence.Job
	err = c.FindOne(ctx, bson.M{"ID": sanitize(id)}).Decode(&res)
	if err == mgo.ErrNoDocuments {
		cmdapp.Log.Infof("ID not found %s", id)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't get job record")
	}
	return &res, nil
}
