package mongo

import (
	"time"

	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/status"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrAlreadyTerminal indicates a transition attempt on a completed or failed job
var ErrAlreadyTerminal = errors.New("job is in terminal state")

// CompletedData keeps fields set together with the completed transition
type CompletedData struct {
	Duration  float64
	WordCount int
	RequestID string
	CostCents int64
}

// StatusSaver applies job status transitions in mongo db.
// All updates are keyed by job ID and guarded by the current status,
// so replaying the same transition never corrupts the record.
type StatusSaver struct {
	SessionProvider *SessionProvider
}

// NewStatusSaver creates StatusSaver instance
func NewStatusSaver(sessionProvider *SessionProvider) (*StatusSaver, error) {
	f := StatusSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// StartProcessing moves the job to processing state.
// Returns ErrAlreadyTerminal if the job was completed or failed before.
func (ss *StatusSaver) StartProcessing(id string) error {
	cmdapp.Log.Infof("Saving status %s: %s", id, status.Name(status.Processing))

	c, ctx, cancel, err := newColl(ss.SessionProvider, jobTable)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := c.UpdateOne(ctx,
		bson.M{"ID": sanitize(id), "status": bson.M{"$in": liveStatuses()}},
		bson.M{"$set": bson.M{"status": status.Name(status.Processing), "startedAt": time.Now()}})
	if err != nil {
		return errors.Wrap(err, "can't update job")
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

// Complete moves the job to completed state with the derived fields.
// Repeating the transition rewrites the same fields - last write wins.
func (ss *StatusSaver) Complete(id string, data *CompletedData) error {
	cmdapp.Log.Infof("Saving status %s: %s", id, status.Name(status.Completed))

	c, ctx, cancel, err := newColl(ss.SessionProvider, jobTable)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := c.UpdateOne(ctx,
		bson.M{"ID": sanitize(id),
			"status": bson.M{"$ne": status.Name(status.Failed)}},
		bson.M{"$set": bson.M{"status": status.Name(status.Completed),
			"completedAt":       time.Now(),
			"durationSeconds":   data.Duration,
			"wordCount":         data.WordCount,
			"deepgramRequestID": data.RequestID,
			"costCents":         data.CostCents},
			"$unset": bson.M{"error": ""}})
	if err != nil {
		return errors.Wrap(err, "can't update job")
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

// Fail moves the job to failed state with the error message.
// For an already completed job only the diagnostic error text is overwritten,
// the terminal state and its fields are left untouched.
func (ss *StatusSaver) Fail(id string, errMsg string) error {
	cmdapp.Log.Infof("Saving status %s: %s (%s)", id, status.Name(status.Failed), errMsg)

	c, ctx, cancel, err := newColl(ss.SessionProvider, jobTable)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := c.UpdateOne(ctx,
		bson.M{"ID": sanitize(id),
			"status": bson.M{"$ne": status.Name(status.Completed)}},
		bson.M{"$set": bson.M{"status": status.Name(status.Failed),
			"completedAt": time.Now(), "error": errMsg}})
	if err != nil {
		return errors.Wrap(err, "can't update job")
	}
	if res.MatchedCount == 0 {
		_, err = c.UpdateOne(ctx, bson.M{"ID": sanitize(id)},
			bson.M{"$set": bson.M{"error": errMsg}})
		return errors.Wrap(err, "can't update job error")
	}
	return nil
}

func liveStatuses() []string {
	return []string{status.Name(status.Pending), status.Name(status.Processing)}
}
