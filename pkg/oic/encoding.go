package oic

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/akaitrade/ordinalindex/pkg/types"
)

// nameRecordWire mirrors the restricted, single-level, string-only JSON
// shape the inscription parser itself accepts — the name record's KV
// value is deliberately the same restricted format the wire inscription
// arrived in, just with owner/block/txIndex filled in.
type nameRecordWire struct {
	P       string `json:"p"`
	Op      string `json:"op"`
	Name    string `json:"cns"`
	Relay   string `json:"relay,omitempty"`
	Owner   string `json:"owner"`
	Block   string `json:"block"`
	TxIndex string `json:"txIndex"`
}

func encodeNameRecord(rec types.NameRecord) ([]byte, error) {
	w := nameRecordWire{
		P:       rec.Namespace,
		Op:      rec.Op,
		Name:    rec.Name,
		Relay:   rec.Relay,
		Owner:   rec.Owner,
		Block:   strconv.FormatInt(rec.FirstSeenBlock, 10),
		TxIndex: strconv.FormatUint(uint64(rec.FirstSeenTxIndex), 10),
	}
	return json.Marshal(w)
}

func decodeNameRecord(b []byte) (types.NameRecord, error) {
	var w nameRecordWire
	if err := json.Unmarshal(b, &w); err != nil {
		return types.NameRecord{}, fmt.Errorf("oic: decode name record: %w", err)
	}
	block, err := strconv.ParseInt(w.Block, 10, 64)
	if err != nil {
		return types.NameRecord{}, fmt.Errorf("oic: decode name record block: %w", err)
	}
	txIndex, err := strconv.ParseUint(w.TxIndex, 10, 32)
	if err != nil {
		return types.NameRecord{}, fmt.Errorf("oic: decode name record txIndex: %w", err)
	}
	return types.NameRecord{
		Namespace:        w.P,
		Op:               w.Op,
		Name:             w.Name,
		Relay:            w.Relay,
		Owner:            w.Owner,
		FirstSeenBlock:   block,
		FirstSeenTxIndex: uint32(txIndex),
	}, nil
}

func encodeBalance(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func decodeBalance(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// encodeInscriptionMeta packs the audit record as
// {type:u8, blockNumber:u64, txIndex:u64, source_len:u16, source,
// raw_len:u32, raw_json} — a flat binary layout rather than JSON, so the
// raw JSON payload doesn't pay the overhead of being JSON-encoded a second
// time just to sit inside an envelope.
func encodeInscriptionMeta(m types.InscriptionMeta) []byte {
	source := m.Source
	raw := []byte(m.RawJSON)

	buf := make([]byte, 0, 1+8+8+2+len(source)+4+len(raw))
	buf = append(buf, byte(m.Type))

	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], uint64(m.BlockNumber))
	buf = append(buf, tmp8[:]...)
	binary.BigEndian.PutUint64(tmp8[:], uint64(m.TxIndex))
	buf = append(buf, tmp8[:]...)

	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], uint16(len(source)))
	buf = append(buf, tmp2[:]...)
	buf = append(buf, source...)

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(raw)))
	buf = append(buf, tmp4[:]...)
	buf = append(buf, raw...)

	return buf
}

func decodeInscriptionMeta(b []byte) (types.InscriptionMeta, error) {
	if len(b) < 1+8+8+2 {
		return types.InscriptionMeta{}, fmt.Errorf("oic: inscription meta too short")
	}
	m := types.InscriptionMeta{
		Type:        types.InscriptionKind(b[0]),
		BlockNumber: int64(binary.BigEndian.Uint64(b[1:9])),
		TxIndex:     uint32(binary.BigEndian.Uint64(b[9:17])),
	}
	off := 19
	srcLen := int(binary.BigEndian.Uint16(b[17:19]))
	if len(b) < off+srcLen+4 {
		return types.InscriptionMeta{}, fmt.Errorf("oic: inscription meta truncated (source)")
	}
	m.Source = append([]byte(nil), b[off:off+srcLen]...)
	off += srcLen

	rawLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b) < off+rawLen {
		return types.InscriptionMeta{}, fmt.Errorf("oic: inscription meta truncated (raw json)")
	}
	m.RawJSON = string(b[off : off+rawLen])

	return m, nil
}
