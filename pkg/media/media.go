package media

import (
	"encoding/json"
	"fmt"
)

// ServiceName is the receiver application service for media control.
const ServiceName = "org.ocast.media"

// Type is the kind of media to prepare.
type Type string

const (
	TypeAudio Type = "audio"
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// TrackType is the kind of track to select.
type TrackType string

const (
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "text"
	TrackVideo    TrackType = "video"
)

// TransferMode tells the player whether the media is on demand or live.
type TransferMode string

const (
	TransferBuffered TransferMode = "buffered"
	TransferStreamed TransferMode = "streamed"
)

// PlaybackState is the player state reported in a playback status.
type PlaybackState int

const (
	StateUnknown PlaybackState = iota
	StateIdle
	StatePlaying
	StatePaused
	StateBuffering
)

func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// PlaybackStatus is the answer to getPlaybackStatus and the params of the
// playbackStatus event. Volume is between 0 and 1; Position and Duration are
// in seconds.
type PlaybackStatus struct {
	Volume   float64       `json:"volume"`
	Mute     bool          `json:"mute"`
	State    PlaybackState `json:"state"`
	Position float64       `json:"position"`
	Duration float64       `json:"duration"`
}

// Track is one audio, video or subtitle track of the current media.
type Track struct {
	ID       string `json:"trackId"`
	Language string `json:"language"`
	Label    string `json:"label"`
	Enabled  bool   `json:"enabled"`
}

// Metadata describes the current media. It is the answer to getMetadata and
// the params of the metadataChanged event.
type Metadata struct {
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Logo           string  `json:"logo"`
	MediaType      Type    `json:"mediaType"`
	SubtitleTracks []Track `json:"textTracks"`
	AudioTracks    []Track `json:"audioTracks"`
	VideoTracks    []Track `json:"videoTracks"`
}

// PrepareParams loads a media in the player.
type PrepareParams struct {
	URL string `json:"url"`
	// Frequency is the playbackStatus event period in seconds
	Frequency    uint         `json:"frequency"`
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle"`
	Logo         string       `json:"logo"`
	MediaType    Type         `json:"mediaType"`
	TransferMode TransferMode `json:"transferMode"`
	Autoplay     bool         `json:"autoplay"`
}

// TrackParams enables or disables a track.
type TrackParams struct {
	TrackID string    `json:"trackId"`
	Type    TrackType `json:"type"`
	Enable  bool      `json:"enable"`
}

type positionParams struct {
	Position float64 `json:"position"`
}

type volumeParams struct {
	Volume float64 `json:"volume"`
}

type muteParams struct {
	Mute bool `json:"mute"`
}

type noParams struct{}

// DecodePlaybackStatus decodes the params of a playbackStatus event.
func DecodePlaybackStatus(params json.RawMessage) (PlaybackStatus, error) {
	var st PlaybackStatus
	if err := json.Unmarshal(params, &st); err != nil {
		return PlaybackStatus{}, fmt.Errorf("%w: %v", ErrInvalidPlaybackStatus, err)
	}
	return st, nil
}

// DecodeMetadata decodes the params of a metadataChanged event.
func DecodeMetadata(params json.RawMessage) (Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(params, &md); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return md, nil
}
