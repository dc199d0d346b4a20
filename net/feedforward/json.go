package feedforward

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/nncli/model"
import "github.com/neurlang/nncli/tensor"

// parameters copies the weights and biases into their model file form.
func (f *FeedforwardNetwork) parameters() model.Parameters {
	weights := make([]tensor.Nested, len(f.weights))
	biases := make([]tensor.Nested, len(f.biases))
	for l, w := range f.weights {
		r, _ := w.Dims()
		rows := make([][]float64, r)
		for i := range rows {
			rows[i] = mat.Row(nil, i, w)
		}
		weights[l] = tensor.Matrix(rows)
		biases[l] = tensor.Vector(mat.Col(nil, 0, f.biases[l]))
	}
	return model.Parameters{
		Weights: tensor.List(weights...),
		Biases:  tensor.List(biases...),
	}
}

// setParameters loads weights and biases, checking their shape against the
// layer configuration.
func (f *FeedforwardNetwork) setParameters(p model.Parameters) error {
	layers := f.cfg.LayersConfig
	wl, bl := p.Weights.Items(), p.Biases.Items()
	if len(wl) != len(layers)-1 || len(bl) != len(layers)-1 {
		return model.ConfigErrorf("parameters: %d weight and %d bias layers for %d layers",
			len(wl), len(bl), len(layers)-1)
	}
	f.weights = make([]*mat.Dense, len(wl))
	f.biases = make([]*mat.VecDense, len(bl))
	for l := range wl {
		in, out := layers[l].NumNeurons, layers[l+1].NumNeurons
		rows := wl[l].Items()
		if len(rows) != out {
			return model.ConfigErrorf("parameters: layer %d has %d weight rows, want %d", l+1, len(rows), out)
		}
		data := make([]float64, 0, out*in)
		for i, row := range rows {
			if row.IsLeaf() || len(row.Items()) != in || row.Count() != in {
				return model.ConfigErrorf("parameters: layer %d neuron %d needs %d weights", l+1, i, in)
			}
			data = append(data, row.Flatten()...)
		}
		if bl[l].Count() != out || len(bl[l].Items()) != out {
			return model.ConfigErrorf("parameters: layer %d needs %d biases", l+1, out)
		}
		f.weights[l] = mat.NewDense(out, in, data)
		f.biases[l] = mat.NewVecDense(out, bl[l].Flatten())
	}
	return nil
}
