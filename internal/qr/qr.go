// Package qr generates the QR payload used for the pairing handoff.
// One device displays the PNG, the other scans it and calls the pairing
// endpoint with the decoded payload; scanning itself is a client concern.
package qr

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PayloadType identifies a pairing QR payload.
const PayloadType = "pairing"

// Payload is the JSON carried inside the QR image.
type Payload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	OwnerID string `json:"owner_id"`
}

// Encode renders the pairing payload as a PNG of the given pixel size.
func Encode(code, ownerID string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}

	data, err := json.Marshal(Payload{
		Type:    PayloadType,
		Code:    code,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	return png, nil
}

// Decode parses a scanned pairing payload.
func Decode(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal QR payload: %w", err)
	}
	if p.Type != PayloadType {
		return nil, fmt.Errorf("unexpected QR payload type %q", p.Type)
	}
	if p.Code == "" {
		return nil, fmt.Errorf("QR payload missing code")
	}
	return &p, nil
}
