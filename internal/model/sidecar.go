package model

// SidecarSuffix is appended to the seal identifier to name the sidecar record.
const SidecarSuffix = ".manifest.json"

// A Sidecar is the durable proof-of-seal record stored next to the sealed image.
// It is written once and never mutated.
type Sidecar struct {
	Manifest Manifest `json:"manifest"`
	// Linked is the canonical reference of the sealed image.
	Linked string `json:"linked"`
	// FileHash is the fingerprint of Linked's bytes at seal time.
	FileHash string `json:"fileHash"`
}

// SidecarName returns the sidecar object name of the given seal identifier.
func SidecarName(id string) string {
	return id + SidecarSuffix
}
