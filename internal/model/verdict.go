package model

type (
	// Status is the outcome of a verification.
	Status string

	// MatchedBy is the strategy that produced a match.
	MatchedBy string
)

const (
	StatusValid    Status = "valid"
	StatusTampered Status = "tampered"
	StatusNone     Status = "none"

	MatchedByURI      MatchedBy = "uri"
	MatchedByFilename MatchedBy = "filename"
	MatchedByHash     MatchedBy = "hash"
)

// A Verdict is the ephemeral result of a verification. It is never persisted.
type Verdict struct {
	Status    Status    `json:"status"`
	MatchedBy MatchedBy `json:"matchedBy,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	LinkedURI string    `json:"linkedUri,omitempty"`
	Sidecar   string    `json:"sidecar,omitempty"`
	FileHash  string    `json:"fileHash,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Manifest  *Manifest `json:"manifest,omitempty"`
}
