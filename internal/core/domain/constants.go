package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrNoInput            = errors.New("no input images")
	ErrMissingOutput      = errors.New("expected output file missing")
	ErrUnsupportedFormat  = errors.New("unsupported source format")
	ErrInvalidMode        = errors.New("invalid protection mode")
	ErrUnsupportedOutput  = errors.New("unsupported output format")
	ErrNothingDelivered   = errors.New("no protected output could be delivered")
	ErrNotProtectedOutput = errors.New("does not follow the protected output naming convention")
)

const (
	CloakedMarker   = "_cloaked"
	DeliveredMarker = "_copied"

	MIMEHEIC = "image/heic"
	MIMEDNG  = "image/x-adobe-dng"
)

const (
	ReplyProcessing  = "Processing, please wait..."
	ReplyUnsupported = "Not a supported document format. Please send me a valid image or document."
	ReplyInvalid     = "Not a valid image or document. Please send me a valid image or document."
	ReplyFailed      = "Error when processing image."
	ReplyNoFace      = "No face could be found in the image, nothing to cloak."
	ReplyTimeout     = "Processing took too long, please try again later."
	CaptionNoGPS     = "Location metadata of the original was removed."
)
