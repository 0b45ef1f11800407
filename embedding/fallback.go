package embedding

import (
	"crypto/md5"
	"encoding/binary"
	"image"
	"math/rand"

	"github.com/disintegration/imaging"
)

// generateFallback derives a unit vector purely from the image's pixel
// content: the resized raster is hashed and the hash seeds a PRNG. Two
// byte-identical images always yield the identical vector. The vector
// carries no similarity meaning, which the model label documents.
func (e *Embedder) generateFallback(img *image.NRGBA) *Result {
	resized := imaging.Resize(img, ImageSize, ImageSize, imaging.Lanczos)
	sum := md5.Sum(resized.Pix)
	seed := binary.BigEndian.Uint32(sum[:4])

	rng := rand.New(rand.NewSource(int64(seed)))
	vec := make([]float64, Dimensions)
	for i := range vec {
		vec[i] = rng.NormFloat64()
	}
	normalize(vec)
	return &Result{Embedding: vec, Dimensions: Dimensions, Model: fallbackModelName}
}
