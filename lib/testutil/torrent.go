// Package testutil builds metadata files and content for tests.
package testutil

import (
	"crypto/sha1"
	"math/rand"

	"example.com/gotorrent/lib/bencode"
)

// Content returns n pseudo-random bytes, the same for the same seed.
func Content(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

// PieceHashes concatenates the digest of every pieceLength slice of content.
func PieceHashes(content []byte, pieceLength int) []byte {
	var out []byte
	for off := 0; off < len(content); off += pieceLength {
		end := off + pieceLength
		if end > len(content) {
			end = len(content)
		}
		sum := sha1.Sum(content[off:end])
		out = append(out, sum[:]...)
	}
	return out
}

// InfoDict is the single-file info dict describing content.
func InfoDict(name string, content []byte, pieceLength int) *bencode.Dict {
	return bencode.NewDict(
		bencode.Entry{Key: "length", Value: bencode.Int(len(content))},
		bencode.Entry{Key: "name", Value: bencode.Bytes(name)},
		bencode.Entry{Key: "piece length", Value: bencode.Int(pieceLength)},
		bencode.Entry{Key: "pieces", Value: bencode.Bytes(PieceHashes(content, pieceLength))},
	)
}

// Torrent encodes a metadata file for content.
func Torrent(announce, name string, content []byte, pieceLength int) []byte {
	b, err := bencode.Encode(bencode.NewDict(
		bencode.Entry{Key: "announce", Value: bencode.Bytes(announce)},
		bencode.Entry{Key: "created by", Value: bencode.Bytes("gotorrent test")},
		bencode.Entry{Key: "info", Value: InfoDict(name, content, pieceLength)},
	))
	if err != nil {
		panic(err)
	}
	return b
}
