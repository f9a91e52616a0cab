// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// HashingVersion is the model version tag of HashingModel vectors.
const HashingVersion = "hashing-v1"

// DefaultHashingDimensions is used when NewHashingModel gets dims <= 0.
const DefaultHashingDimensions = 384

// HashingModel embeds text by hashing lowercase tokens into a fixed number
// of buckets. The sign of each contribution comes from a second hash bit so
// that collisions tend to cancel. Vectors are L2-normalized; text without
// tokens maps to the zero vector.
type HashingModel struct {
	dims int
}

// NewHashingModel creates a hashing model with dims buckets.
func NewHashingModel(dims int) *HashingModel {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingModel{dims: dims}
}

// Embed implements recommend.EmbeddingModel.
func (m *HashingModel) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.embed(text)
	}
	return out, nil
}

// ModelVersion implements recommend.EmbeddingModel.
func (m *HashingModel) ModelVersion() string {
	return HashingVersion
}

// Dimensions returns the vector size.
func (m *HashingModel) Dimensions() int {
	return m.dims
}

func (m *HashingModel) embed(text string) []float64 {
	vec := make([]float64, m.dims)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(m.dims))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// tokenize splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var _ recommend.EmbeddingModel = (*HashingModel)(nil)
