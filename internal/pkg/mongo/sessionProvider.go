package mongo

import (
	"context"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// IndexData keeps index creation data
type IndexData struct {
	Table  string
	Field  string
	Unique bool
}

func newIndexData(table string, field string, unique bool) IndexData {
	return IndexData{Table: table, Field: field, Unique: unique}
}

// SessionProvider connects and provides client for mongo DB
type SessionProvider struct {
	client  *mgo.Client
	URL     string
	indexes []IndexData
	m       sync.Mutex // struct field mutex
}

// NewSessionProvider creates Mongo session provider
func NewSessionProvider() (*SessionProvider, error) {
	url := cmdapp.Config.GetString("mongo.url")
	if url == "" {
		return nil, errors.New("No Mongo url provided")
	}
	return &SessionProvider{URL: url, indexes: indexData}, nil
}

// Close closes mongo client
func (sp *SessionProvider) Close() {
	if sp.client != nil {
		ctx, cancel := mongoContext()
		defer cancel()
		cmdapp.LogIf(sp.client.Disconnect(ctx))
	}
}

// Healthy checks the mongo connection
func (sp *SessionProvider) Healthy() error {
	c, err := sp.Client()
	if err != nil {
		return err
	}
	ctx, cancel := mongoContext()
	defer cancel()
	return c.Ping(ctx, readpref.Primary())
}

// Client returns cached mongo client or tries to connect
func (sp *SessionProvider) Client() (*mgo.Client, error) {
	sp.m.Lock()
	defer sp.m.Unlock()

	if sp.client == nil {
		cmdapp.Log.Info("Dial mongo: " + hidePass(sp.URL))
		ctx, cancel := mongoContext()
		defer cancel()
		client, err := mgo.Connect(ctx, options.Client().ApplyURI(sp.URL))
		if err != nil {
			return nil, errors.Wrap(err, "Can't dial to mongo")
		}
		err = checkIndexes(client, sp.indexes)
		if err != nil {
			return nil, errors.Wrap(err, "Can't create indexes")
		}
		sp.client = client
	}
	return sp.client, nil
}

func checkIndexes(c *mgo.Client, indexes []IndexData) error {
	for _, index := range indexes {
		err := checkIndex(c, index)
		if err != nil {
			return errors.Wrap(err, "Can't create index: "+index.Table+":"+index.Field)
		}
	}
	return nil
}

func checkIndex(c *mgo.Client, indexData IndexData) error {
	ctx, cancel := mongoContext()
	defer cancel()
	coll := c.Database(store).Collection(indexData.Table)
	_, err := coll.Indexes().CreateOne(ctx,
		mgo.IndexModel{
			Keys:    bson.D{{Key: indexData.Field, Value: 1}},
			Options: options.Index().SetUnique(indexData.Unique).SetSparse(true),
		})
	return err
}

func newColl(sp *SessionProvider, table string) (*mgo.Collection, context.Context, context.CancelFunc, error) {
	c, err := sp.Client()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := mongoContext()
	return c.Database(store).Collection(table), ctx, cancel, nil
}

func mongoContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var idRegexp = regexp.MustCompile(`^[a-zA-Z0-9\-/._]*$`)

// sanitize drops suspicious ID to avoid operator injection in queries
func sanitize(id string) string {
	if idRegexp.MatchString(id) {
		return id
	}
	return ""
}

func hidePass(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		cmdapp.Log.Warn("Can't parse mongo url.")
		return ""
	}
	_, ps := u.User.Password()
	if ps {
		u.User = url.UserPassword(u.User.Username(), "----")
	}
	return u.String()
}
