package filter

import (
	"math"
	"sync"
)

// GaussianKernel generates a normalized 1D Gaussian kernel that reaches
// radius pixels on either side, with sigma = radius/3.
// For radius < 1 it returns the identity kernel.
func GaussianKernel(radius float32) []float32 {
	half := int(math.Ceil(float64(radius)))
	if radius <= 0 || half < 1 {
		return []float32{1}
	}
	sigma := float64(radius) / 3
	size := half*2 + 1
	kernel := make([]float32, size)

	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)
	for i := 0; i < size; i++ {
		x := float64(i - half)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	invSum := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= invSum
	}
	return kernel
}

// kernelCache caches Gaussian kernels keyed by radius in hundredths of a
// pixel. Bakes reuse a handful of radii.
type kernelCache struct {
	mu    sync.RWMutex
	cache map[int][]float32
}

var defaultKernelCache = &kernelCache{cache: make(map[int][]float32)}

func (c *kernelCache) get(radius float32) []float32 {
	key := int(radius * 100)

	c.mu.RLock()
	if k, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return k
	}
	c.mu.RUnlock()

	k := GaussianKernel(radius)
	c.mu.Lock()
	c.cache[key] = k
	c.mu.Unlock()
	return k
}

// CachedGaussianKernel returns a cached GaussianKernel(radius).
func CachedGaussianKernel(radius float32) []float32 {
	return defaultKernelCache.get(radius)
}
