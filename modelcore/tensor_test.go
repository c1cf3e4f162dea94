package modelcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNPYEncodeDecodeRoundTrip(t *testing.T) {
	in := Tensor{
		Data:  []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		Shape: []int64{3},
		Dtype: "i4",
	}
	raw, err := EncodeNPY(in)
	require.NoError(t, err)

	out, err := DecodeNPY(raw)
	require.NoError(t, err)
	require.Equal(t, in.Shape, out.Shape)
	require.Equal(t, in.Dtype, out.Dtype)
	require.Equal(t, in.Data, out.Data)
}

func TestNPYBase64RoundTrip(t *testing.T) {
	in := Tensor{Data: []byte{1, 2, 3, 4}, Shape: []int64{4}, Dtype: "u1"}
	b64, err := EncodeNPYBase64(in)
	require.NoError(t, err)

	out, err := DecodeNPYBase64(b64)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestNPYDecodeRejectsBadMagic(t *testing.T) {
	_, err := DecodeNPY([]byte("not an npy file at all"))
	require.Error(t, err)
}

func TestNPYDecodeRejectsFortranOrder(t *testing.T) {
	header := "{'descr': '<f4', 'fortran_order': True, 'shape': (2,), }"
	raw := buildNpyStream(t, header, make([]byte, 8))
	_, err := DecodeNPY(raw)
	require.Error(t, err)
}

func TestNPYDecodeRejectsBigEndian(t *testing.T) {
	header := "{'descr': '>f4', 'fortran_order': False, 'shape': (2,), }"
	raw := buildNpyStream(t, header, make([]byte, 8))
	_, err := DecodeNPY(raw)
	require.Error(t, err)
}

func TestNPYDecodeRejectsSizeMismatch(t *testing.T) {
	header := "{'descr': '<f4', 'fortran_order': False, 'shape': (2,), }"
	raw := buildNpyStream(t, header, make([]byte, 3))
	_, err := DecodeNPY(raw)
	require.Error(t, err)
}

func TestNumElements(t *testing.T) {
	tensor := Tensor{Shape: []int64{2, 3, 4}}
	require.Equal(t, int64(24), tensor.NumElements())
}

// buildNpyStream assembles a minimal v1 NPY stream around a raw header
// string and payload, without going through EncodeNPY, so malformed
// headers can be exercised directly.
func buildNpyStream(t *testing.T, header string, payload []byte) []byte {
	t.Helper()
	pad := (64 - (10+len(header)+1)%64) % 64
	for i := 0; i < pad; i++ {
		header += " "
	}
	header += "\n"

	buf := append([]byte{}, npyMagic...)
	buf = append(buf, 1, 0)
	hlen := len(header)
	buf = append(buf, byte(hlen&0xff), byte((hlen>>8)&0xff))
	buf = append(buf, []byte(header)...)
	buf = append(buf, payload...)
	return buf
}
