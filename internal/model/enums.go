package model

type SessionStatus string

const (
	SessionStatusDisconnected SessionStatus = "disconnected"
	SessionStatusConnecting   SessionStatus = "connecting"
	SessionStatusConnected    SessionStatus = "connected"
)

type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
)

// ParseMediaKind maps a declared media type onto a send shape. Anything
// unrecognized, including an empty value, is sent the way images are.
func ParseMediaKind(s string) MediaKind {
	switch MediaKind(s) {
	case MediaKindVideo, MediaKindAudio, MediaKindDocument:
		return MediaKind(s)
	default:
		return MediaKindImage
	}
}

// CarriesCaption reports whether messages of this kind have a caption field.
func (k MediaKind) CarriesCaption() bool {
	return k != MediaKindAudio
}
