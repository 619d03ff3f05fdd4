package ribbon

import (
	"fmt"

	"fdnet/internal/unit"
)

// Key describes a fully connected shape. ColumnLengths[0] is the input width,
// so len(ColumnLengths) == LayerCount+1.
type Key struct {
	LayerCount    int   `json:"layer_count"`
	ColumnLengths []int `json:"column_lengths"`
}

// WB is the nested form of a ribbon: W[layer][unit][previous unit] and
// B[layer][unit]. Layer 0 is the first computing layer.
type WB struct {
	W [][][]float64 `json:"w"`
	B [][]float64   `json:"b"`
}

// KeyOf derives the key of a layer stack fed by inputs values.
func KeyOf(inputs int, layers []unit.Layer) Key {
	lengths := make([]int, 0, len(layers)+1)
	lengths = append(lengths, inputs)
	for _, layer := range layers {
		lengths = append(lengths, len(layer))
	}
	return Key{LayerCount: len(layers), ColumnLengths: lengths}
}

func (k Key) Validate() error {
	if len(k.ColumnLengths) != k.LayerCount+1 {
		return fmt.Errorf("%w: key has %d column lengths for %d layers", unit.ErrInvariant, len(k.ColumnLengths), k.LayerCount)
	}
	for i, width := range k.ColumnLengths {
		if width <= 0 {
			return fmt.Errorf("%w: column %d has width %d", unit.ErrInvariant, i, width)
		}
	}
	return nil
}

// WeightCount is the size of the weight region: sum of w(l)*w(l-1).
func (k Key) WeightCount() int {
	total := 0
	for l := 1; l < len(k.ColumnLengths); l++ {
		total += k.ColumnLengths[l] * k.ColumnLengths[l-1]
	}
	return total
}

func (k Key) BiasCount() int {
	total := 0
	for l := 1; l < len(k.ColumnLengths); l++ {
		total += k.ColumnLengths[l]
	}
	return total
}

func (k Key) Len() int {
	return k.WeightCount() + k.BiasCount()
}

func (wb WB) Flatten() []float64 {
	var weights, biases []float64
	for _, layer := range wb.W {
		for _, row := range layer {
			weights = append(weights, row...)
		}
	}
	for _, layer := range wb.B {
		biases = append(biases, layer...)
	}
	return append(weights, biases...)
}

// Unflatten rebuilds the nested form from shape alone. Weight blocks of
// w(l)*w(l-1) entries are cut from the front in layer order and chunked into
// w(l) rows of w(l-1); biases are cut the same way from the bias region.
func Unflatten(k Key, ribbon []float64) (WB, error) {
	if err := k.Validate(); err != nil {
		return WB{}, err
	}
	if len(ribbon) != k.Len() {
		return WB{}, fmt.Errorf("%w: ribbon length %d, key needs %d", unit.ErrInvariant, len(ribbon), k.Len())
	}

	weightRegion := ribbon[:k.WeightCount()]
	biasRegion := ribbon[k.WeightCount():]
	wb := WB{
		W: make([][][]float64, 0, k.LayerCount),
		B: make([][]float64, 0, k.LayerCount),
	}
	wOffset, bOffset := 0, 0
	for l := 1; l < len(k.ColumnLengths); l++ {
		width, prev := k.ColumnLengths[l], k.ColumnLengths[l-1]
		block := weightRegion[wOffset : wOffset+width*prev]
		rows := make([][]float64, width)
		for n := 0; n < width; n++ {
			rows[n] = append([]float64(nil), block[n*prev:(n+1)*prev]...)
		}
		wb.W = append(wb.W, rows)
		wb.B = append(wb.B, append([]float64(nil), biasRegion[bOffset:bOffset+width]...))
		wOffset += width * prev
		bOffset += width
	}
	return wb, nil
}

// WBOf captures the live parameters of layers in nested form.
func WBOf(layers []unit.Layer) WB {
	wb := WB{
		W: make([][][]float64, len(layers)),
		B: make([][]float64, len(layers)),
	}
	for l, layer := range layers {
		wb.W[l] = make([][]float64, len(layer))
		wb.B[l] = make([]float64, len(layer))
		for n, u := range layer {
			wb.W[l][n] = u.Weights()
			wb.B[l][n] = u.Bias()
		}
	}
	return wb
}
