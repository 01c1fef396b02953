package checkpoint

import (
	"bufio"
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/TheBitDrifter/foundry"
	"github.com/klauspost/compress/zstd"
)

// Version is the document layout written by this package.
const Version = 1

type Header struct {
	Version int     `json:"version"`
	Tick    uint64  `json:"tick"`
	Now     float64 `json:"now"`
}

// Document is the full registry state at a tick boundary.
type Document struct {
	Header   Header   `json:"header"`
	Entities []Entity `json:"entities"`
}

// Entity holds every component of one entity, encoded through the component schemas.
type Entity struct {
	ID         foundry.EntityID          `json:"id"`
	Components map[string]map[string]any `json:"components"`
}

// Capture encodes every live entity in id order. It must run between ticks.
func Capture(reg *foundry.Registry, tick uint64, now float64) (*Document, error) {
	doc := &Document{
		Header: Header{Version: Version, Tick: tick, Now: foundry.Quantize(now)},
	}
	for _, id := range reg.Entities() {
		typeIDs, err := reg.ComponentsOf(id)
		if err != nil {
			return nil, err
		}
		ent := Entity{ID: id, Components: make(map[string]map[string]any, len(typeIDs))}
		for _, typeID := range typeIDs {
			state, err := reg.EncodeComponent(id, typeID)
			if err != nil {
				return nil, err
			}
			ent.Components[typeID] = state
		}
		doc.Entities = append(doc.Entities, ent)
	}
	return doc, nil
}

// CaptureScheduler captures the scheduler's registry at its current tick.
func CaptureScheduler(sched *foundry.Scheduler) (*Document, error) {
	return Capture(sched.Registry(), sched.TickNumber(), sched.Now())
}

// Marshal renders doc as zstd compressed JSON.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(blob []byte) (*Document, error) {
	return decode(bytes.NewReader(blob))
}

func Write(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func Read(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func encode(w io.Writer, doc *Document) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(doc); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func decode(r io.Reader) (*Document, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	jd := json.NewDecoder(bufio.NewReader(dec))
	jd.UseNumber()
	var doc Document
	if err := jd.Decode(&doc); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	if doc.Header.Version != Version {
		return nil, VersionError{Got: doc.Header.Version}
	}
	return &doc, nil
}

// Digest is a sha256 over the canonical JSON form of doc. Instances holding equal state produce
// equal digests.
func Digest(doc *Document) (string, error) {
	entities := slices.Clone(doc.Entities)
	slices.SortFunc(entities, func(a, b Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	raw, err := json.Marshal(Document{Header: doc.Header, Entities: entities})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

