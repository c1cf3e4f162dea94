package onnxengine

import (
	"math"

	onnx "github.com/yalue/onnxruntime_go"
)

func tensorFromInt64s(data []int64, shape []int64) (*onnx.Tensor[int64], error) {
	sh := onnx.NewShape(shape...)
	return onnx.NewTensor(sh, data)
}

func tensorFromFloat32s(data []float32, shape []int64) (*onnx.Tensor[float32], error) {
	sh := onnx.NewShape(shape...)
	return onnx.NewTensor(sh, data)
}

// argmaxF32 returns the index of the largest value in xs, or 0 if xs
// is empty.
func argmaxF32(xs []float32) int {
	if len(xs) == 0 {
		return 0
	}
	maxIdx := 0
	maxVal := xs[0]
	for i := 1; i < len(xs); i++ {
		if xs[i] > maxVal {
			maxVal = xs[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// softmaxF32 converts logits in xs to probabilities in place.
func softmaxF32(xs []float32) {
	if len(xs) == 0 {
		return
	}

	maxVal := xs[0]
	for _, v := range xs[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := float32(0)
	for i, v := range xs {
		e := float32(math.Exp(float64(v - maxVal)))
		xs[i] = e
		sum += e
	}
	if sum == 0 {
		return
	}
	inv := 1 / sum
	for i := range xs {
		xs[i] *= inv
	}
}

// sampleFromProbsF32 draws an index from a normalized distribution xs
// using rnd as the uniform source in [0, 1).
func sampleFromProbsF32(xs []float32, rnd func() float32) int {
	r := rnd()
	acc := float32(0)
	for i, p := range xs {
		acc += p
		if r < acc {
			return i
		}
	}
	if len(xs) == 0 {
		return 0
	}
	return len(xs) - 1
}
