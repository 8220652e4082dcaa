package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/ulikunitz/xz"
)

// EncodeSnapshot serializes a store snapshot as xz-compressed JSON, the
// format the control panel offers for download.
func EncodeSnapshot(snap registry.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("open compressor: %w", err)
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flush compressor: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (registry.Snapshot, error) {
	var snap registry.Snapshot
	xr, err := xz.NewReader(r)
	if err != nil {
		return snap, fmt.Errorf("open decompressor: %w", err)
	}
	if err := json.NewDecoder(xr).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
