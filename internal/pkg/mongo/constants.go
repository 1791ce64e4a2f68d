package mongo

const (
	store         = "transcription"
	jobTable      = "jobs"
	metadataTable = "metadata"
)

var indexData = []IndexData{
	newIndexData(jobTable, "ID", true),
	newIndexData(metadataTable, "jobID", true)}
