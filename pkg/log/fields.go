package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Storage notification
	FieldBucket    = "bucket"
	FieldKey       = "key"
	FieldEventName = "event_name"

	// Pipeline
	FieldStage  = "stage"
	FieldTopic  = "topic"
	FieldDriver = "driver"
	FieldURL    = "url"
)
