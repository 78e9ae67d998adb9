package domain

import (
	"fmt"
	"strings"
)

type Route string

const (
	RouteCommand     Route = "command"
	RouteHEIC        Route = "heic"
	RouteDNG         Route = "dng"
	RoutePhoto       Route = "photo"
	RouteUnsupported Route = "unsupported"
	RouteInvalid     Route = "invalid"
)

// Classify picks the processing path for an inbound message.
func Classify(message *Message) Route {
	if message == nil {
		return RouteInvalid
	}

	switch message.Kind {
	case KindCommand:
		return RouteCommand
	case KindDocument:
		if message.File == nil {
			return RouteInvalid
		}
		switch strings.ToLower(message.File.MIMEType) {
		case MIMEHEIC:
			return RouteHEIC
		case MIMEDNG:
			return RouteDNG
		default:
			return RouteUnsupported
		}
	case KindPhoto:
		if message.File == nil {
			return RouteInvalid
		}
		return RoutePhoto
	default:
		return RouteInvalid
	}
}

// Processes reports whether the route runs the cloaking pipeline.
func (r Route) Processes() bool {
	return r == RouteHEIC || r == RouteDNG || r == RoutePhoto
}

// NeedsConversion reports whether the input has to be turned into a JPEG first.
func (r Route) NeedsConversion() bool {
	return r == RouteHEIC || r == RouteDNG
}

func ParseMode(mode string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(mode))); m {
	case ModeLow, ModeMid, ModeHigh:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}
