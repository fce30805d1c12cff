package embed

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"draftcheck/internal/fsatomic"
)

// Sidecar artifacts: a JSON sentence list and a binary vector matrix. Both
// are written via temp file + rename so a failed or cancelled rebuild never
// damages the previous artifacts. They are loaded together or not at all.

const (
	vectorMagic   = "DCVX"
	vectorVersion = 1
)

// SidecarPaths derives the artifact paths deterministically from the corpus
// snapshot path.
func SidecarPaths(snapshotPath string) (sentencesPath, vectorsPath string) {
	base := strings.TrimSuffix(snapshotPath, filepath.Ext(snapshotPath))
	return base + ".sentences.json", base + ".vectors.bin"
}

type sentenceFile struct {
	Meta      Meta     `json:"meta"`
	Sentences []string `json:"sentences"`
	Sources   []string `json:"sources"`
}

// Save writes both artifacts atomically. The vectors file lands first; the
// sentence file acts as the commit marker.
func (ix *Index) Save(snapshotPath string) error {
	var st fsatomic.Stage
	if err := ix.Stage(snapshotPath, &st); err != nil {
		st.Discard()
		return err
	}
	return st.Commit()
}

// Stage adds both sidecar payloads to st without renaming them into place,
// so callers can commit them together with the corpus snapshot.
func (ix *Index) Stage(snapshotPath string, st *fsatomic.Stage) error {
	sentencesPath, vectorsPath := SidecarPaths(snapshotPath)

	if err := st.Add(vectorsPath, encodeVectors(ix.Vectors, ix.Meta.Dimension)); err != nil {
		return fmt.Errorf("write vector matrix: %w", err)
	}
	raw, err := json.Marshal(sentenceFile{Meta: ix.Meta, Sentences: ix.Sentences, Sources: ix.Sources})
	if err != nil {
		return fmt.Errorf("marshal sentence list: %w", err)
	}
	if err := st.Add(sentencesPath, raw); err != nil {
		return fmt.Errorf("write sentence list: %w", err)
	}
	return nil
}

// Load reads both artifacts. Any inconsistency between them fails the load
// as a unit.
func Load(snapshotPath string) (*Index, error) {
	sentencesPath, vectorsPath := SidecarPaths(snapshotPath)

	raw, err := os.ReadFile(sentencesPath)
	if err != nil {
		return nil, fmt.Errorf("read sentence list: %w", err)
	}
	var sf sentenceFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse sentence list: %w", err)
	}

	rawVec, err := os.ReadFile(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("read vector matrix: %w", err)
	}
	vectors, dim, err := decodeVectors(rawVec)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(sf.Sentences) {
		return nil, fmt.Errorf("sidecar mismatch: %d vectors for %d sentences", len(vectors), len(sf.Sentences))
	}
	if sf.Meta.Dimension != 0 && sf.Meta.Dimension != dim {
		return nil, fmt.Errorf("sidecar mismatch: meta dimension %d vs matrix %d", sf.Meta.Dimension, dim)
	}
	if len(sf.Sources) != len(sf.Sentences) {
		sf.Sources = make([]string, len(sf.Sentences))
	}
	return &Index{Sentences: sf.Sentences, Sources: sf.Sources, Vectors: vectors, Meta: sf.Meta}, nil
}

func encodeVectors(vectors [][]float32, dim int) []byte {
	buf := make([]byte, 0, 16+len(vectors)*dim*4)
	buf = append(buf, vectorMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, vectorVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vectors)))
	for _, vec := range vectors {
		for j := 0; j < dim; j++ {
			var v float32
			if j < len(vec) {
				v = vec[j]
			}
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

func decodeVectors(raw []byte) ([][]float32, int, error) {
	if len(raw) < 16 || string(raw[:4]) != vectorMagic {
		return nil, 0, fmt.Errorf("vector matrix: bad header")
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != vectorVersion {
		return nil, 0, fmt.Errorf("vector matrix: unsupported version %d", version)
	}
	dim := int(binary.LittleEndian.Uint32(raw[8:12]))
	count := int(binary.LittleEndian.Uint32(raw[12:16]))
	if dim <= 0 || count < 0 {
		return nil, 0, fmt.Errorf("vector matrix: bad shape %dx%d", count, dim)
	}
	need := 16 + count*dim*4
	if len(raw) < need {
		return nil, 0, fmt.Errorf("vector matrix: truncated (%d of %d bytes)", len(raw), need)
	}
	vectors := make([][]float32, count)
	off := 16
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, dim, nil
}
