package onnx

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// pool reduces model output to one unit-length vector. A [1, dims] output
// is used as is; a [1, seq, dims] output is mean pooled over the positions
// where mask is 1.
func pool(data []float32, shape []int64, mask []int64, dims int) ([]float32, error) {
	vec := make([]float32, dims)

	switch len(shape) {
	case 2:
		if len(data) < dims {
			return nil, goerr.New("output dimension mismatch", goerr.Value("got", len(data)), goerr.Value("want", dims))
		}
		copy(vec, data[:dims])

	case 3:
		batch, seqLen, hidden := shape[0], int(shape[1]), int(shape[2])
		if batch != 1 {
			return nil, goerr.New("expected batch size 1", goerr.Value("batch", batch))
		}
		if hidden != dims {
			return nil, goerr.New("hidden size mismatch", goerr.Value("got", hidden), goerr.Value("want", dims))
		}
		if len(data) < seqLen*hidden || len(mask) < seqLen {
			return nil, goerr.New("output shorter than its shape", goerr.Value("shape", shape))
		}

		var attended float32
		for i := 0; i < seqLen; i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			row := data[i*hidden : (i+1)*hidden]
			for j, v := range row {
				vec[j] += v
			}
		}
		if attended > 0 {
			for j := range vec {
				vec[j] /= attended
			}
		}

	default:
		return nil, goerr.New("unexpected output shape", goerr.Value("shape", shape))
	}

	return normalize(vec), nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
