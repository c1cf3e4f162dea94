package modelcore

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// npyMagic is the 6-byte NPY magic string, followed by 2 version bytes.
var npyMagic = []byte("\x93NUMPY")

// dtypeSize maps a normalized numpy dtype descriptor to its element
// size in bytes. Only the dtypes spec.md §3 requires are supported.
var dtypeSize = map[string]int{
	"f4": 4,
	"f8": 8,
	"i4": 4,
	"i8": 8,
	"i2": 2,
	"i1": 1,
	"u1": 1,
}

// Tensor is the decoded form of an NPY byte stream: raw little-endian
// packed element data plus its shape and element dtype.
type Tensor struct {
	Data  []byte
	Shape []int64
	Dtype string // one of f4, f8, i4, i8, i2, i1, u1
}

// NumElements returns the product of the shape, i.e. the element count.
func (t Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// DecodeNPY parses a complete NPY v1/v2 byte stream per spec.md §4.1/§6.
func DecodeNPY(data []byte) (Tensor, error) {
	if len(data) < 8 {
		return Tensor{}, fmt.Errorf("modelcore: NPY stream too short for magic+version")
	}
	if !bytes.Equal(data[:6], npyMagic) {
		return Tensor{}, fmt.Errorf("modelcore: NPY magic string mismatch")
	}
	major := data[6]

	var headerLenLen int
	switch major {
	case 1:
		headerLenLen = 2
	case 2:
		headerLenLen = 4
	default:
		return Tensor{}, fmt.Errorf("modelcore: unsupported NPY version %d", major)
	}

	pos := 8
	if len(data) < pos+headerLenLen {
		return Tensor{}, fmt.Errorf("modelcore: NPY stream truncated before header length")
	}
	var headerLen int
	if headerLenLen == 2 {
		headerLen = int(binary.LittleEndian.Uint16(data[pos : pos+2]))
	} else {
		headerLen = int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	}
	pos += headerLenLen

	if len(data) < pos+headerLen {
		return Tensor{}, fmt.Errorf("modelcore: NPY stream truncated before end of header")
	}
	headerStr := string(data[pos : pos+headerLen])
	pos += headerLen

	hdr, err := parseNpyHeader(headerStr)
	if err != nil {
		return Tensor{}, err
	}
	if hdr.fortranOrder {
		return Tensor{}, fmt.Errorf("modelcore: fortran-order NPY arrays are not supported")
	}

	size, ok := dtypeSize[hdr.descr]
	if !ok {
		return Tensor{}, fmt.Errorf("modelcore: unrecognized dtype %q", hdr.descr)
	}

	payload := data[pos:]
	want := size
	for _, d := range hdr.shape {
		want *= int(d)
	}
	if len(payload) != want {
		return Tensor{}, fmt.Errorf("modelcore: NPY payload size %d does not match shape/dtype (want %d)", len(payload), want)
	}

	return Tensor{
		Data:  append([]byte(nil), payload...),
		Shape: hdr.shape,
		Dtype: hdr.descr,
	}, nil
}

// EncodeNPY serialises a Tensor into a v1 NPY byte stream.
func EncodeNPY(t Tensor) ([]byte, error) {
	size, ok := dtypeSize[t.Dtype]
	if !ok {
		return nil, fmt.Errorf("modelcore: unrecognized dtype %q", t.Dtype)
	}
	want := size
	for _, d := range t.Shape {
		want *= int(d)
	}
	if len(t.Data) != want {
		return nil, fmt.Errorf("modelcore: tensor payload size %d does not match shape/dtype (want %d)", len(t.Data), want)
	}

	shapeParts := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		shapeParts[i] = strconv.FormatInt(d, 10)
	}
	shapeStr := strings.Join(shapeParts, ", ")
	if len(t.Shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '<%s', 'fortran_order': False, 'shape': (%s), }", t.Dtype, shapeStr)

	// Pad so that magic(6)+version(2)+headerlen(2)+header is 64-byte aligned,
	// terminated with a newline, per the documented NPY format.
	const prefixLen = 6 + 2 + 2
	total := prefixLen + len(header) + 1
	pad := (64 - total%64) % 64
	header = header + strings.Repeat(" ", pad) + "\n"

	buf := &bytes.Buffer{}
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	hdrLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(hdrLen, uint16(len(header)))
	buf.Write(hdrLen)
	buf.WriteString(header)
	buf.Write(t.Data)
	return buf.Bytes(), nil
}

// DecodeNPYBase64 decodes a base64-wrapped NPY stream, as carried by a
// TensorNpyB64 Value.
func DecodeNPYBase64(b64 string) (Tensor, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Tensor{}, fmt.Errorf("modelcore: invalid base64 tensor payload: %w", err)
	}
	return DecodeNPY(raw)
}

// EncodeNPYBase64 encodes a Tensor into a base64-wrapped NPY stream.
func EncodeNPYBase64(t Tensor) (string, error) {
	raw, err := EncodeNPY(t)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

type npyHeader struct {
	descr        string
	fortranOrder bool
	shape        []int64
}

// parseNpyHeader tolerantly parses the ASCII header dict per spec.md
// §4.1: whitespace/quote trimming, shape tuple with optional trailing
// comma, rejecting fortran_order=True, big-endian descr, and unknown
// dtypes.
func parseNpyHeader(raw string) (npyHeader, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "{}")

	fields := splitHeaderFields(trimmed)
	values := map[string]string{}
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, ":", 2)
		if len(kv) != 2 {
			return npyHeader{}, fmt.Errorf("modelcore: unable to parse NPY header field %q", field)
		}
		key := strings.Trim(strings.TrimSpace(kv[0]), "'\"")
		val := strings.TrimSpace(kv[1])
		values[key] = val
	}

	fortranOrder := false
	if fo, ok := values["fortran_order"]; ok {
		switch strings.TrimSpace(fo) {
		case "False":
			fortranOrder = false
		case "True":
			fortranOrder = true
		default:
			return npyHeader{}, fmt.Errorf("modelcore: unrecognized fortran_order %q", fo)
		}
	}

	descrRaw, ok := values["descr"]
	if !ok {
		return npyHeader{}, fmt.Errorf("modelcore: NPY header missing descr")
	}
	descrRaw = strings.Trim(descrRaw, "'\"")
	if descrRaw == "" {
		return npyHeader{}, fmt.Errorf("modelcore: NPY header has empty descr")
	}
	if strings.HasPrefix(descrRaw, ">") {
		return npyHeader{}, fmt.Errorf("modelcore: big-endian descr %q is not supported", descrRaw)
	}
	descr := strings.TrimLeft(descrRaw, "=<")
	if _, ok := dtypeSize[descr]; !ok {
		return npyHeader{}, fmt.Errorf("modelcore: unrecognized descr %q", descrRaw)
	}

	shapeRaw, ok := values["shape"]
	if !ok {
		return npyHeader{}, fmt.Errorf("modelcore: NPY header missing shape")
	}
	shapeRaw = strings.Trim(strings.TrimSpace(shapeRaw), "()")
	shapeRaw = strings.TrimSpace(shapeRaw)
	shapeRaw = strings.TrimSuffix(shapeRaw, ",")
	var shape []int64
	if strings.TrimSpace(shapeRaw) != "" {
		for _, part := range strings.Split(shapeRaw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			dim, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return npyHeader{}, fmt.Errorf("modelcore: invalid shape dimension %q: %w", part, err)
			}
			shape = append(shape, dim)
		}
	}

	return npyHeader{
		descr:        descr,
		fortranOrder: fortranOrder,
		shape:        shape,
	}, nil
}

// splitHeaderFields splits a header dict body on top-level commas,
// i.e. commas not nested inside the shape tuple's parentheses.
func splitHeaderFields(s string) []string {
	var fields []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, s[start:i])
				start = i + 1
			}
		}
	}
	fields = append(fields, s[start:])
	return fields
}
