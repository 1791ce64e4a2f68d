package transcription

import (
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/messages"
	"github.com/myhippo/transcriber/internal/pkg/metrics"
	"github.com/myhippo/transcriber/internal/pkg/mongo"
	"github.com/myhippo/transcriber/internal/pkg/rabbit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

var appName = "MyHippo Transcription API Service"

var rootCmd = &cobra.Command{
	Use:   "transcriptionService",
	Short: appName,
	Long:  `HTTP server to queue transcription jobs and provide status and results`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8080)
}

// Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := &ServiceData{}
	err := initMetrics(data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	data.health = healthcheck.NewHandler()
	mongoSessionProvider, err := mongo.NewSessionProvider()
	cmdapp.CheckOrPanic(err, "Can't init mongo session")
	defer mongoSessionProvider.Close()
	data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

	jobSaver, err := mongo.NewJobSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init job saver")
	data.JobSaver = jobSaver

	statusSaver, err := mongo.NewStatusSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init status saver")
	data.JobFailer = statusSaver

	jobProvider, err := mongo.NewStatusProvider(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init job provider")
	data.JobProvider = jobProvider

	metadataSaver, err := mongo.NewMetadataSaver(mongoSessionProvider)
	cmdapp.CheckOrPanic(err, "Can't init metadata provider")
	data.MetadataProvider = metadataSaver

	audioStore, err := blob.NewStore("blobStore.audioBucket")
	cmdapp.CheckOrPanic(err, "Can't init audio store")
	data.AudioChecker = audioStore

	transcriptStore, err := blob.NewStore("blobStore.transcriptionBucket")
	cmdapp.CheckOrPanic(err, "Can't init transcript store")
	data.ArtifactLoader = transcriptStore

	msgChannelProvider, err := rabbit.NewChannelProvider()
	cmdapp.CheckOrPanic(err, "Can't init rabbit provider")
	defer msgChannelProvider.Close()

	data.MessageSender = rabbit.NewSender(msgChannelProvider, func(provider *rabbit.ChannelProvider) error {
		return provider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			_, err := rabbit.Declare(ch, messages.Transcription)
			return err
		})
	})

	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	namespace := "transcription_service"
	data.metrics.transcribeResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_request_durations_seconds",
			Help:      "Transcribe request latency distributions.",
		}, nil)
	err := metrics.Register(data.metrics.transcribeResponseDur)
	if err != nil {
		return err
	}
	data.metrics.statusResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_request_durations_seconds",
			Help:      "Status request latency distributions.",
		}, nil)
	err = metrics.Register(data.metrics.statusResponseDur)
	if err != nil {
		return err
	}
	data.metrics.resultResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_request_durations_seconds",
			Help:      "Result request latency distributions.",
		}, nil)
	return metrics.Register(data.metrics.resultResponseDur)
}
