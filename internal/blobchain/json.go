package blobchain

import "encoding/json"

// wireBlob mirrors the "blobs" entry shape from spec.md section 6.2.
// encoding/json already base64-encodes a []byte field, so B64 round-
// trips through Go's standard encoding without a custom codec.
type wireBlob struct {
	Format           Format  `json:"format"`
	SHA256           string  `json:"sha256"`
	Size             uint64  `json:"size"`
	B64              []byte  `json:"b64"`
	PreviousBlobHash *string `json:"previous_blob_hash"`
	BlobChainHash    *string `json:"blob_chain_hash"`
}

// MarshalJSON implements json.Marshaler using the wire field names from
// spec.md section 6.2.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBlob{
		Format:           p.Format,
		SHA256:           p.ContentSHA256,
		Size:             p.Size,
		B64:              p.Data,
		PreviousBlobHash: p.PreviousBlobHash,
		BlobChainHash:    p.BlobChainHash,
	})
}

// UnmarshalJSON implements json.Unmarshaler for the wire shape above.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w wireBlob
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Format = w.Format
	p.ContentSHA256 = w.SHA256
	p.Size = w.Size
	p.Data = w.B64
	p.PreviousBlobHash = w.PreviousBlobHash
	p.BlobChainHash = w.BlobChainHash
	return nil
}
