package model

import "time"

// DefaultAuthor is the author used when the capture does not provide one.
const DefaultAuthor = "SecureVision User"

// TimestampFormat is the ISO-8601 layout used for manifest and item timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// A Manifest holds the provenance metadata attached to an image at capture time.
// It is immutable once created.
type Manifest struct {
	Timestamp string    `json:"timestamp"`
	Location  *Location `json:"location,omitempty"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Author    string    `json:"author"`
}

// A Location is where the image was captured. Only present when the location permission was granted.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// Accuracy in meters.
	Accuracy float64 `json:"acc,omitempty"`
}

// GenerateManifest fills the missing fields of the partial manifest.
// An empty author falls back to author, or DefaultAuthor when author is empty too.
func GenerateManifest(partial Manifest, author string) Manifest {
	m := partial
	if m.Timestamp == "" {
		m.Timestamp = Now()
	}
	if m.Location != nil {
		l := *m.Location
		m.Location = &l
	}
	if m.Author == "" {
		m.Author = author
	}
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	return m
}

// Now returns the current UTC time formatted with TimestampFormat.
func Now() string {
	return time.Now().UTC().Format(TimestampFormat)
}
