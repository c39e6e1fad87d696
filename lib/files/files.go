package files

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"example.com/gotorrent/lib/core/domain"
	"example.com/gotorrent/lib/logger"
)

var l_files = logger.Named("files")

// WritePiece stores one verified piece as its own file at dest.
func WritePiece(dest string, data []byte) error {
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write piece: %w", err)
		}
	}
	if err := ioutil.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write piece: %w", err)
	}
	l_files.Sugar().Debugw("piece written", "path", dest, "size", len(data))
	return nil
}

// File is the single output file described by Metadata.
type File struct {
	Path     string
	Metadata domain.Metadata
}

// Create makes the file, and its directory, at full length.
func (f File) Create() error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	fd, err := os.OpenFile(f.Path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := fd.Truncate(f.Metadata.Info.Length); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// WriteAt places piece index at its offset. data must be exactly the
// piece's size.
func (f File) WriteAt(index int, data []byte) error {
	off, size, err := f.region(index)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("piece %d is %d bytes, got %d", index, size, len(data))
	}
	fd, err := os.OpenFile(f.Path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := fd.WriteAt(data, off); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// ReadPiece returns the bytes currently stored for piece index.
func (f File) ReadPiece(index int) ([]byte, error) {
	off, size, err := f.region(index)
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	buf := make([]byte, size)
	if _, err := fd.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// Check hashes every piece on disk and marks the ones that verify.
func (f File) Check() (domain.PieceList, error) {
	have := domain.NewPieceList(f.Metadata.PieceCount())
	hashes := f.Metadata.PieceHashes()
	for i := range hashes {
		data, err := f.ReadPiece(i)
		if err != nil {
			return nil, err
		}
		if _, err := domain.VerifyPiece(uint32(i), data, hashes[i]); err == nil {
			have.SetPiece(uint32(i))
		}
	}
	l_files.Sugar().Debugw("checked file", "path", f.Path, "have", have.Count(), "pieces", len(hashes))
	return have, nil
}

func (f File) region(index int) (off, size int64, err error) {
	if off, err = f.Metadata.PieceOffset(index); err != nil {
		return 0, 0, err
	}
	if size, err = f.Metadata.PieceSize(index); err != nil {
		return 0, 0, err
	}
	return off, size, nil
}
