package event

import (
	"encoding/json"
	"net/url"
)

// Decode extracts the bucket and percent-decoded object key from the first
// record of a storage notification. Any shape violation is reported as a
// *MalformedEventError.
func Decode(raw []byte) (*Notification, error) {
	var n rawNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, &MalformedEventError{Reason: "invalid notification JSON", Err: err}
	}

	if len(n.Records) == 0 {
		return nil, &MalformedEventError{Reason: "notification has no records"}
	}

	rec := n.Records[0]
	if rec.S3.Bucket.Name == "" {
		return nil, &MalformedEventError{Reason: "missing Records[0].s3.bucket.name"}
	}
	if rec.S3.Object.Key == "" {
		return nil, &MalformedEventError{Reason: "missing Records[0].s3.object.key"}
	}

	// Path unescaping keeps '+' as-is; only %XX sequences are decoded.
	key, err := url.PathUnescape(rec.S3.Object.Key)
	if err != nil {
		return nil, &MalformedEventError{Reason: "object key is not valid percent-encoding", Err: err}
	}

	return &Notification{
		Bucket:      rec.S3.Bucket.Name,
		Key:         key,
		EventName:   rec.EventName,
		Size:        rec.S3.Object.Size,
		ContentType: rec.S3.Object.ContentType,
		EventTime:   rec.EventTime,
	}, nil
}
