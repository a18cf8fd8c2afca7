package qr

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEncode(t *testing.T) {
	png, err := Encode("AB3XK9", "user-1", 256)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	// Zero size falls back to the default.
	if _, err := Encode("AB3XK9", "user-1", 0); err != nil {
		t.Fatalf("encode default size: %v", err)
	}
}

func TestDecode(t *testing.T) {
	raw, err := json.Marshal(Payload{Type: PayloadType, Code: "AB3XK9", OwnerID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}

	p, err := Decode(string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Code != "AB3XK9" || p.OwnerID != "user-1" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":     "scan me",
		"wrong type":   `{"type":"login","code":"AB3XK9"}`,
		"missing code": `{"type":"pairing","code":""}`,
	}
	for name, raw := range cases {
		if _, err := Decode(raw); err == nil {
			t.Errorf("%s: decode succeeded", name)
		}
	}
}
