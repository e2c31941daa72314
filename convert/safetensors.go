// safetensors.go - Reader fuer das safetensors Checkpoint-Format
//
// Format: 8 Byte Header-Laenge (little endian), JSON-Header mit
// dtype/shape/data_offsets pro Tensor, danach die rohen Tensor-Daten.
// Unterstuetzte dtypes: F32, F16, BF16, F64
package convert

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// safetensorMeta beschreibt einen Tensor im JSON-Header
type safetensorMeta struct {
	Dtype   string `json:"dtype"`
	Shape   []int  `json:"shape"`
	Offsets []int  `json:"data_offsets"`
}

// ReadSafetensors liest alle Tensoren einer safetensors-Datei
func ReadSafetensors(path string) (map[string]Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var headerLen uint64
	if err := binary.Read(f, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}

	if headerLen > 100<<20 {
		return nil, fmt.Errorf("%w: implausible header size %d", ErrCheckpoint, headerLen)
	}

	headerData := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerData); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}

	// Tensor-Daten beginnen direkt nach dem Header
	base := int64(8 + headerLen)

	tensors := make(map[string]Tensor, len(header))
	for name, raw := range header {
		if name == "__metadata__" {
			continue
		}

		var meta safetensorMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrCheckpoint, name, err)
		}

		if len(meta.Offsets) != 2 || meta.Offsets[1] < meta.Offsets[0] {
			return nil, fmt.Errorf("%w: tensor %s has invalid offsets %v", ErrCheckpoint, name, meta.Offsets)
		}

		buf := make([]byte, meta.Offsets[1]-meta.Offsets[0])
		if _, err := f.ReadAt(buf, base+int64(meta.Offsets[0])); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrCheckpoint, name, err)
		}

		data, err := decodeTensorData(meta.Dtype, buf)
		if err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrCheckpoint, name, err)
		}

		t := Tensor{Name: name, Shape: slices.Clone(meta.Shape), Data: data}
		if t.Elements() != len(data) {
			return nil, fmt.Errorf("%w: tensor %s has %d values for shape %v", ErrCheckpoint, name, len(data), meta.Shape)
		}

		tensors[name] = t
	}

	return tensors, nil
}

// decodeTensorData konvertiert rohe Tensor-Bytes nach float32
func decodeTensorData(dtype string, buf []byte) ([]float32, error) {
	switch dtype {
	case "F32":
		if len(buf)%4 != 0 {
			return nil, fmt.Errorf("truncated F32 data")
		}

		data := make([]float32, len(buf)/4)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return data, nil

	case "F16":
		if len(buf)%2 != 0 {
			return nil, fmt.Errorf("truncated F16 data")
		}

		data := make([]float32, len(buf)/2)
		for i := range data {
			data[i] = float16.Frombits(binary.LittleEndian.Uint16(buf[i*2:])).Float32()
		}
		return data, nil

	case "BF16":
		if len(buf)%2 != 0 {
			return nil, fmt.Errorf("truncated BF16 data")
		}

		return bfloat16.DecodeFloat32(buf), nil

	case "F64":
		if len(buf)%8 != 0 {
			return nil, fmt.Errorf("truncated F64 data")
		}

		data := make([]float32, len(buf)/8)
		for i := range data {
			data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
		return data, nil
	}

	return nil, fmt.Errorf("unsupported dtype %s", dtype)
}
