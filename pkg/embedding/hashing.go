package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/dd0wney/cluso-genremap/pkg/vector"
)

// DefaultHashingDimensions matches the width of all-MiniLM-L6-v2.
const DefaultHashingDimensions = 384

// HashingEncoder is a deterministic bag-of-words encoder using signed feature
// hashing over unigrams and bigrams. It needs no model server, so it backs
// offline runs and tests.
type HashingEncoder struct {
	dimensions int
}

// NewHashingEncoder creates an encoder producing vectors of the given width.
func NewHashingEncoder(dimensions int) *HashingEncoder {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEncoder{dimensions: dimensions}
}

// Model returns a descriptive model name.
func (h *HashingEncoder) Model() string {
	return fmt.Sprintf("hashing-%d", h.dimensions)
}

// Encode embeds each text independently. The result is L2-normalized.
func (h *HashingEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.encodeOne(text)
	}
	return out, nil
}

func (h *HashingEncoder) encodeOne(text string) []float64 {
	v := make([]float64, h.dimensions)
	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return vector.Normalize(v)
}

func (h *HashingEncoder) add(v []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
