// torch.go - Reader fuer PyTorch Checkpoints (pytorch_model.bin)
//
// Laedt das state_dict ueber gopickle und konvertiert die Storages
// nach float32. Non-Tensor-Eintraege und unbekannte Storage-Typen
// werden uebersprungen bzw. als Fehler gemeldet.
package convert

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
)

// ReadTorch liest alle Tensoren eines PyTorch-Checkpoints
func ReadTorch(path string) (map[string]Tensor, error) {
	obj, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}

	tensors := make(map[string]Tensor)

	add := func(key, value any) error {
		name, ok := key.(string)
		if !ok {
			return nil
		}

		pt, ok := value.(*pytorch.Tensor)
		if !ok {
			return nil
		}

		t, err := fromTorchTensor(name, pt)
		if err != nil {
			return err
		}

		tensors[name] = t
		return nil
	}

	switch sd := obj.(type) {
	case *types.OrderedDict:
		for key, entry := range sd.Map {
			if err := add(key, entry.Value); err != nil {
				return nil, err
			}
		}
	case *types.Dict:
		for _, entry := range *sd {
			if err := add(entry.Key, entry.Value); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected root object %T", ErrCheckpoint, obj)
	}

	return tensors, nil
}

// fromTorchTensor kopiert die Storage-Daten eines Tensors nach float32
func fromTorchTensor(name string, pt *pytorch.Tensor) (Tensor, error) {
	numel := 1
	for _, d := range pt.Size {
		numel *= d
	}

	offset := int(pt.StorageOffset)

	var data []float32
	switch storage := pt.Source.(type) {
	case *pytorch.FloatStorage:
		data = storage.Data[offset : offset+numel]
	case *pytorch.HalfStorage:
		data = storage.Data[offset : offset+numel]
	case *pytorch.BFloat16Storage:
		data = storage.Data[offset : offset+numel]
	case *pytorch.DoubleStorage:
		data = make([]float32, numel)
		for i, v := range storage.Data[offset : offset+numel] {
			data[i] = float32(v)
		}
	default:
		return Tensor{}, fmt.Errorf("%w: tensor %s has unsupported storage %T", ErrCheckpoint, name, pt.Source)
	}

	out := make([]float32, numel)
	copy(out, data)

	shape := make([]int, len(pt.Size))
	copy(shape, pt.Size)

	return Tensor{Name: name, Shape: shape, Data: out}, nil
}
