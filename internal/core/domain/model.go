package domain

import "time"

type Kind string

const (
	KindCommand  Kind = "command"
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
	KindOther    Kind = "other"
)

// FileRef points at a file hosted by the chat transport.
type FileRef struct {
	ID       string
	UniqueID string
	Name     string
	MIMEType string
	Size     int64
}

type Message struct {
	ID       int
	ChatID   int64
	SenderID int64
	Username string
	Kind     Kind
	Text     string
	File     *FileRef
}

type Action string

const (
	Typing          Action = "typing"
	SendingDocument Action = "upload_document"
)

type Mode string

const (
	ModeLow  Mode = "low"
	ModeMid  Mode = "mid"
	ModeHigh Mode = "high"
)

// ImageInfo is the subset of an input's metadata that affects delivery.
type ImageInfo struct {
	CameraMake  string
	CameraModel string
	DateTaken   time.Time
	HasGPS      bool
}

// Artifact pairs a protected output with the input it was produced from.
type Artifact struct {
	Source    string
	Cloaked   string
	Delivered string
	Info      ImageInfo
}

type JobRecord struct {
	ChatID    int64
	Route     Route
	Reason    FailureReason
	Artifacts int
	Duration  time.Duration
	CreatedAt time.Time
}

type JobStats struct {
	Total     int
	Succeeded int
	Failed    int
	Artifacts int
}
