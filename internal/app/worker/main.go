package worker

import (
	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/deepgram"
	"github.com/myhippo/transcriber/internal/pkg/messages"
	"github.com/myhippo/transcriber/internal/pkg/mongo"
	"github.com/myhippo/transcriber/internal/pkg/rabbit"
	"github.com/spf13/cobra"
)

var appName = "MyHippo Transcription Worker Service"

var rootCmd = &cobra.Command{
	Use:   "workerService",
	Short: appName,
	Long:  `Worker service to transcribe audio files from the queue`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.Config.SetDefault("worker.ratePerMinuteCents", 0.43)
}

// Execute starts the worker
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := &ServiceData{}

	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo session")
	defer mongoSessionProvider.Close()

	statusSaver, err := mongo.NewStatusSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init status saver")
	data.StatusSaver = statusSaver

	jobProvider, err := mongo.NewStatusProvider(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init job provider")
	data.JobProvider = jobProvider

	metadataSaver, err := mongo.NewMetadataSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init metadata saver")
	data.MetadataSaver = metadataSaver

	audioStore, err := blob.NewStore("blobStore.audioBucket")
	cmdapp.CheckOrPanic(err, "Can't init audio store")
	data.AudioLoader = audioStore

	transcriptStore, err := blob.NewStore("blobStore.transcriptionBucket")
	cmdapp.CheckOrPanic(err, "Can't init transcript store")
	data.ArtifactSaver = transcriptStore

	data.Transcriber, err = deepgram.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init deepgram client")

	data.RatePerMinuteCents = cmdapp.Config.GetFloat64("worker.ratePerMinuteCents")

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit provider")
	defer msgChannelProvider.Close()

	data.WorkCh, err = rabbit.NewChannel(msgChannelProvider, messages.Transcription)
	cmdapp.CheckOrPanic(err, "Can't listen "+messages.Transcription+" queue")

	fc, err := StartWorkerService(data)
	cmdapp.CheckOrPanic(err, "Can't start worker service")
	<-fc
	cmdapp.Log.Infof("Exiting service")
}
