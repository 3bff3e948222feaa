package event

import "time"

// Notification holds the fields of one S3/MinIO object notification record
// that the face pipeline cares about.
type Notification struct {
	Bucket      string
	Key         string // percent-decoded, e.g. "romo-test/img.png"
	EventName   string
	Size        int64
	ContentType string
	EventTime   time.Time
}

// rawNotification is the S3 / MinIO notification envelope. MinIO's Kafka
// target adds a top-level EventName and Key, which are ignored here.
type rawNotification struct {
	Records []rawRecord `json:"Records"`
}

type rawRecord struct {
	EventName string    `json:"eventName"`
	EventTime time.Time `json:"eventTime"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key         string `json:"key"`
			Size        int64  `json:"size"`
			ContentType string `json:"contentType"`
		} `json:"object"`
	} `json:"s3"`
}
