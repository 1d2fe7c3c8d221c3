package queue

type JobType string

const (
	JobImageVariant JobType = "image_variant"
)

// Job is one unit of post-publish processing. Jobs are advisory: losing one
// never loses the attachment itself.
type Job struct {
	Type         JobType
	AttachmentID string
	StoragePath  string
}
