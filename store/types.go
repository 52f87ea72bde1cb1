package store

// Message statuses in raw_messages.status.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusDuplicate = "duplicate"
)

// Ledger statuses in processed_entities.status.
const (
	EntityComplete     = "complete"
	EntityIncomplete   = "incomplete"
	EntityUnclassified = "unclassified"
)

// Message is one row of raw_messages.
type Message struct {
	ID          string
	SHA256      string
	SourcePath  string
	MessageID   string
	Subject     string
	Sender      string
	SentAt      int64 // epoch millis, 0 when the Date header was absent
	ContentKind string
	BodyText    string
	BodyHTML    string
	TemplateID  string
	Confidence  float64
	Status      string
	Error       string
	IngestedAt  int64
}

// Attachment is one row of attachments. The payload itself lives on disk at
// StoredPath, content-addressed by SHA256.
type Attachment struct {
	ID          string
	MessageID   string
	Filename    string
	ContentType string
	SizeBytes   int64
	SHA256      string
	StoredPath  string
	Pages       int
}

// ProcessedEntity is one row of the processing ledger.
type ProcessedEntity struct {
	ID            string
	MessageID     string
	EntityType    string
	EntityID      string
	TemplateID    string
	Status        string
	MissingFields string // JSON array
	EnumReview    string // JSON array of {field, literal}
	Overflow      string // JSON object; populated for unclassified records
	ProcessedAt   int64
}
