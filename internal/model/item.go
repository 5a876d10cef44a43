package model

// A SealedItem is an entry of the sealed-item index.
//
// Status is a snapshot taken at seal time, the current state of the image
// must be obtained with a new verification.
type SealedItem struct {
	ID        string   `json:"id"`
	URI       string   `json:"uri"`
	Manifest  Manifest `json:"manifest"`
	CreatedAt string   `json:"createdAt"`
	Status    Status   `json:"status"`
	Hash      string   `json:"hash,omitempty"`
	AssetID   string   `json:"assetId,omitempty"`
}
