package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/ioutil"

	"example.com/gotorrent/lib/bencode"
)

const pieceHashLen = 20

type InfoHash [20]byte

func (h InfoHash) String() string {
	return hex.EncodeToString(h[:])
}

type Metadata struct {
	Announce     string
	AnnounceList [][]string
	CreatedBy    string
	Comment      string
	CreationDate int64

	Info     Info
	InfoHash InfoHash
}

type Info struct {
	Length      int64
	Name        string
	PieceLength int64
	Pieces      []byte
}

func LoadMetadata(path string) (Metadata, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	return ParseMetadata(b)
}

// ParseMetadata decodes a metadata file and projects it onto Metadata. The
// info hash is taken over the info dict exactly as it appears in b.
func ParseMetadata(b []byte) (Metadata, error) {
	v, err := bencode.Decode(b)
	if err != nil {
		return Metadata{}, err
	}
	top, ok := v.(*bencode.Dict)
	if !ok {
		return Metadata{}, &SchemaError{Field: "", Reason: "top level value is not a dict"}
	}

	var m Metadata
	if m.Announce, err = stringField(top, "announce", true); err != nil {
		return Metadata{}, err
	}
	if m.CreatedBy, err = stringField(top, "created by", false); err != nil {
		return Metadata{}, err
	}
	if m.Comment, err = stringField(top, "comment", false); err != nil {
		return Metadata{}, err
	}
	if m.CreationDate, err = intField(top, "creation date", false); err != nil {
		return Metadata{}, err
	}
	if m.AnnounceList, err = announceList(top); err != nil {
		return Metadata{}, err
	}

	infoV, ok := top.Get("info")
	if !ok {
		return Metadata{}, &SchemaError{Field: "info", Reason: "missing"}
	}
	info, ok := infoV.(*bencode.Dict)
	if !ok {
		return Metadata{}, &SchemaError{Field: "info", Reason: "not a dict"}
	}
	if m.Info, err = parseInfo(info); err != nil {
		return Metadata{}, err
	}
	if m.InfoHash, err = ComputeInfoHash(info); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// ComputeInfoHash is the SHA-1 of the info dict's source bytes. Dicts built
// in memory have no source bytes and are hashed in canonical form.
func ComputeInfoHash(info *bencode.Dict) (InfoHash, error) {
	raw := info.Raw()
	if raw == nil {
		var err error
		if raw, err = bencode.Encode(info); err != nil {
			return InfoHash{}, err
		}
	}
	return sha1.Sum(raw), nil
}

func parseInfo(info *bencode.Dict) (Info, error) {
	var out Info
	var err error

	if out.Name, err = stringField(info, "name", true); err != nil {
		return Info{}, err
	}
	if _, multi := info.Get("files"); multi {
		if _, single := info.Get("length"); !single {
			return Info{}, &SchemaError{Field: "length", Reason: "multi-file metadata is not supported"}
		}
	}
	if out.Length, err = intField(info, "length", true); err != nil {
		return Info{}, err
	}
	if out.Length < 0 {
		return Info{}, &SchemaError{Field: "length", Reason: "negative"}
	}
	if out.PieceLength, err = intField(info, "piece length", true); err != nil {
		return Info{}, err
	}
	if out.PieceLength <= 0 {
		return Info{}, &SchemaError{Field: "piece length", Reason: "not positive"}
	}
	pieces, err := bytesField(info, "pieces", true)
	if err != nil {
		return Info{}, err
	}
	if len(pieces)%pieceHashLen != 0 {
		return Info{}, &SchemaError{Field: "pieces", Reason: fmt.Sprintf("length %d is not a multiple of %d", len(pieces), pieceHashLen)}
	}
	out.Pieces = pieces

	want := (out.Length + out.PieceLength - 1) / out.PieceLength
	if got := int64(len(pieces) / pieceHashLen); got != want {
		return Info{}, &SchemaError{Field: "pieces", Reason: fmt.Sprintf("%d digests for %d pieces", got, want)}
	}
	return out, nil
}

func (m Metadata) PieceCount() int {
	return len(m.Info.Pieces) / pieceHashLen
}

// PieceHash returns the expected digest of piece index.
func (m Metadata) PieceHash(index int) ([20]byte, error) {
	var h [20]byte
	if err := m.checkIndex(index); err != nil {
		return h, err
	}
	copy(h[:], m.Info.Pieces[index*pieceHashLen:])
	return h, nil
}

// PieceSize is the piece length for every piece but the last, which holds
// whatever remains of the file.
func (m Metadata) PieceSize(index int) (int64, error) {
	if err := m.checkIndex(index); err != nil {
		return 0, err
	}
	if index == m.PieceCount()-1 {
		return m.Info.Length - m.Info.PieceLength*int64(index), nil
	}
	return m.Info.PieceLength, nil
}

// PieceOffset is where piece index starts within the file.
func (m Metadata) PieceOffset(index int) (int64, error) {
	if err := m.checkIndex(index); err != nil {
		return 0, err
	}
	return m.Info.PieceLength * int64(index), nil
}

// PieceHashes lists every expected digest in order.
func (m Metadata) PieceHashes() [][20]byte {
	out := make([][20]byte, m.PieceCount())
	for i := range out {
		copy(out[i][:], m.Info.Pieces[i*pieceHashLen:])
	}
	return out
}

// Trackers returns announce followed by every announce-list entry, without
// duplicates.
func (m Metadata) Trackers() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}

func (m Metadata) checkIndex(index int) error {
	if index < 0 || index >= m.PieceCount() {
		return fmt.Errorf("%w: %d of %d", ErrPieceIndex, index, m.PieceCount())
	}
	return nil
}

func stringField(d *bencode.Dict, key string, required bool) (string, error) {
	b, err := bytesField(d, key, required)
	return string(b), err
}

func bytesField(d *bencode.Dict, key string, required bool) ([]byte, error) {
	v, ok := d.Get(key)
	if !ok {
		if required {
			return nil, &SchemaError{Field: key, Reason: "missing"}
		}
		return nil, nil
	}
	b, ok := v.(bencode.Bytes)
	if !ok {
		return nil, &SchemaError{Field: key, Reason: fmt.Sprintf("expected byte string, got %s", kind(v))}
	}
	return []byte(b), nil
}

func intField(d *bencode.Dict, key string, required bool) (int64, error) {
	v, ok := d.Get(key)
	if !ok {
		if required {
			return 0, &SchemaError{Field: key, Reason: "missing"}
		}
		return 0, nil
	}
	n, ok := v.(bencode.Int)
	if !ok {
		return 0, &SchemaError{Field: key, Reason: fmt.Sprintf("expected integer, got %s", kind(v))}
	}
	return int64(n), nil
}

func announceList(d *bencode.Dict) ([][]string, error) {
	v, ok := d.Get("announce-list")
	if !ok {
		return nil, nil
	}
	tiers, ok := v.(bencode.List)
	if !ok {
		return nil, &SchemaError{Field: "announce-list", Reason: "not a list"}
	}
	out := make([][]string, 0, len(tiers))
	for _, tierV := range tiers {
		tier, ok := tierV.(bencode.List)
		if !ok {
			return nil, &SchemaError{Field: "announce-list", Reason: "tier is not a list"}
		}
		urls := make([]string, 0, len(tier))
		for _, u := range tier {
			b, ok := u.(bencode.Bytes)
			if !ok {
				return nil, &SchemaError{Field: "announce-list", Reason: "url is not a byte string"}
			}
			urls = append(urls, string(b))
		}
		out = append(out, urls)
	}
	return out, nil
}

func kind(v bencode.Value) string {
	switch v.(type) {
	case bencode.Bytes:
		return "byte string"
	case bencode.Int:
		return "integer"
	case bencode.List:
		return "list"
	case *bencode.Dict:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}
