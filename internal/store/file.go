package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// On-disk layout: magic, big-endian uint32 metadata length, metadata JSON, data.
var fileMagic = [4]byte{'E', 'P', 'B', '1'}

const fileExt = ".blob"

// FileStore keeps one file per key under Dir. Writes go to a temp file in the
// same directory and are renamed into place.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: file driver needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "store: create %s", dir)
	}
	return &FileStore{Dir: filepath.Clean(dir)}, nil
}

func (s *FileStore) Put(ctx context.Context, key string, obj Object) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta, err := json.Marshal(obj.Meta)
	if err != nil {
		return errors.Wrap(err, "store: encode metadata")
	}

	var buf bytes.Buffer
	buf.Grow(len(fileMagic) + 4 + len(meta) + len(obj.Data))
	buf.Write(fileMagic[:])
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(meta)))
	buf.Write(meta)
	buf.Write(obj.Data)

	target := s.path(key)
	tmp, err := os.CreateTemp(s.Dir, ".put-*-"+filepath.Base(target))
	if err != nil {
		return errors.Wrapf(err, "store: write %s", key)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(buf.Bytes())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "store: write %s", key)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "store: commit %s", key)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Object{}, ErrNotFound
		}
		return Object{}, errors.Wrapf(err, "store: read %s", key)
	}
	return decodeFileObject(raw)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, sanitizeKey(key)+fileExt)
}

func decodeFileObject(raw []byte) (Object, error) {
	r := bytes.NewReader(raw)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != fileMagic {
		return Object{}, errors.New("store: corrupt blob header")
	}
	var metaLen uint32
	if err := binary.Read(r, binary.BigEndian, &metaLen); err != nil {
		return Object{}, errors.Wrap(err, "store: corrupt blob header")
	}
	if int64(metaLen) > int64(r.Len()) {
		return Object{}, errors.New("store: metadata length exceeds file")
	}
	metaRaw := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metaRaw); err != nil {
		return Object{}, errors.Wrap(err, "store: read metadata")
	}
	var meta map[string]string
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return Object{}, errors.Wrap(err, "store: decode metadata")
	}
	data := make([]byte, r.Len())
	_, _ = io.ReadFull(r, data)
	return Object{Data: data, Meta: meta}, nil
}

// sanitizeKey maps a key to a file name. Bytes outside [A-Za-z0-9_-] become
// %XX so distinct keys never share a file.
func sanitizeKey(key string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0F])
		}
	}
	return b.String()
}
