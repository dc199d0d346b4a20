package feedforward

import "math"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/nncli/model"

// activate computes the layer output a from the pre-activation z.
func activate(name string, z *mat.VecDense) *mat.VecDense {
	n := z.Len()
	a := mat.NewVecDense(n, nil)
	switch name {
	case model.Softmax:
		peak := math.Inf(-1)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, z.AtVec(i))
		}
		var sum float64
		for i := 0; i < n; i++ {
			e := math.Exp(z.AtVec(i) - peak)
			a.SetVec(i, e)
			sum += e
		}
		a.ScaleVec(1/sum, a)
	default:
		for i := 0; i < n; i++ {
			a.SetVec(i, scalar(name, z.AtVec(i)))
		}
	}
	return a
}

func scalar(name string, z float64) float64 {
	switch name {
	case model.ReLU:
		if z > 0 {
			return z
		}
		return 0
	case model.Sigmoid:
		return 1 / (1 + math.Exp(-z))
	case model.Tanh:
		return math.Tanh(z)
	}
	return z
}

// derivative of an element-wise activation, given both z and a = f(z).
func derivative(name string, z, a float64) float64 {
	switch name {
	case model.ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case model.Sigmoid:
		return a * (1 - a)
	case model.Tanh:
		return 1 - a*a
	}
	return 1
}
