package mongo

import (
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/persistence"
	"github.com/pkg/errors"
)

// JobSaver inserts new transcription jobs to mongo db
type JobSaver struct {
	SessionProvider *SessionProvider
}

// NewJobSaver creates JobSaver instance
func NewJobSaver(sessionProvider *SessionProvider) (*JobSaver, error) {
	f := JobSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// Save inserts the pending job record
func (js *JobSaver) Save(job *persistence.Job) error {
	cmdapp.Log.Infof("Saving job %s for %s", job.ID, job.AudioKey)

	c, ctx, cancel, err := newColl(js.SessionProvider, jobTable)
	if err != nil {
		return err
	}
	defer cancel()

	_, err = c.InsertOne(ctx, job)
	if err != nil {
		return errors.Wrap(err, "can't insert job")
	}
	return nil
}
