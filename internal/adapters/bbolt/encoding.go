// Record encoding.
//
// Keys within a configuration bucket are the bucket's NextSequence value as
// a big-endian uint64, so bbolt's byte ordering is insertion order and a
// cursor walks records oldest to newest. Values are JSON RunRecords.
package bbolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/corey/svdprobe/internal/ports"
)

// seqSize is the byte size of an encoded sequence key.
const seqSize = 8

// seqKey encodes a sequence number as a sortable bucket key.
func seqKey(seq uint64) []byte {
	k := make([]byte, seqSize)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// parseSeqKey decodes a key written by seqKey.
func parseSeqKey(k []byte) (uint64, error) {
	if len(k) != seqSize {
		return 0, fmt.Errorf("sequence key: want %d bytes, got %d", seqSize, len(k))
	}
	return binary.BigEndian.Uint64(k), nil
}

func encodeRecord(rec *ports.RunRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal run record: %w", err)
	}
	return data, nil
}

// decodeRecord unmarshals v and takes Seq from the key. Unmarshal copies
// everything it keeps, so v may be a slice owned by the transaction.
func decodeRecord(k, v []byte) (*ports.RunRecord, error) {
	seq, err := parseSeqKey(k)
	if err != nil {
		return nil, err
	}
	var rec ports.RunRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal run record %d: %w", seq, err)
	}
	rec.Seq = seq
	return &rec, nil
}
