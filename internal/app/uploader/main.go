package uploader

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/ledger"
	"github.com/spf13/cobra"
)

var appName = "MyHippo Audio Uploader Service"

var rootCmd = &cobra.Command{
	Use:   "uploaderService",
	Short: appName,
	Long:  `Daemon to watch a directory and upload audio files to the blob store`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	cmdapp.Config.SetDefault("uploader.concurrency", 3)
	cmdapp.Config.SetDefault("uploader.ledger", ".processed_files")
}

// Execute starts the uploader
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data := &ServiceData{}

	fileLedger, err := ledger.NewFileLedger(cmdapp.Config.GetString("uploader.ledger"))
	cmdapp.CheckOrPanic(err, "Can't init ledger")
	defer fileLedger.Close()
	data.Ledger = fileLedger

	audioStore, err := blob.NewStore("blobStore.audioBucket")
	cmdapp.CheckOrPanic(err, "Can't init audio store")
	data.FileSaver = audioStore

	data.Concurrency = cmdapp.Config.GetInt("uploader.concurrency")
	data.ProcessedDir = cmdapp.Config.GetString("uploader.processedDir")
	if data.ProcessedDir != "" {
		err = os.MkdirAll(data.ProcessedDir, 0755)
		cmdapp.CheckOrPanic(err, "Can't create processed directory")
	}

	watcher, err := NewWatcher(cmdapp.Config.GetString("uploader.directory"))
	cmdapp.CheckOrPanic(err, "Can't init watcher")
	data.FilesCh = watcher.FilesCh

	fc, err := StartUploaderService(data)
	cmdapp.CheckOrPanic(err, "Can't start uploader service")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	cmdapp.Log.Info("Shutting down gracefully")
	cmdapp.LogIf(watcher.Close())
	<-fc
	cmdapp.Log.Infof("Exiting service")
}
