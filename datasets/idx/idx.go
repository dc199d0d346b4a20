// Package idx decodes labeled datasets stored as a pair of big-endian IDX files
// (an unsigned-byte tensor of records plus an unsigned-byte label vector),
// the container format of the MNIST digit dataset.
package idx

import "bufio"
import "bytes"
import "compress/gzip"
import "encoding/binary"
import "io"
import "os"
import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/nncli/datasets"

// DataMagic identifies a 3-dimensional unsigned byte tensor (idx3-ubyte).
const DataMagic uint32 = 0x00000803

// LabelsMagic identifies a 1-dimensional unsigned byte vector (idx1-ubyte).
const LabelsMagic uint32 = 0x00000801

// maxRecordSize bounds rows*cols so a corrupt header can't request absurd buffers.
const maxRecordSize = 1 << 28

// preallocation cap for record slices, headers are not trusted beyond this
const maxPrealloc = 1 << 16

// Header is the decoded header of an IDX data file.
type Header struct {
	Magic uint32
	Count uint32
	Rows  uint32
	Cols  uint32
}

// RecordSize is the number of bytes in each record.
func (h Header) RecordSize() int {
	return int(h.Rows) * int(h.Cols)
}

type options struct {
	classes int
}

// Option configures Decode.
type Option func(*options)

// WithClasses fixes the number of one-hot classes instead of deriving it from
// the largest label. Zero restores the derived policy.
func WithClasses(n int) Option {
	return func(o *options) {
		o.classes = n
	}
}

// Decode reads the data and labels files and converts them into samples with
// inputs normalized to [0,1] and one-hot outputs. Files ending in .gz are
// decompressed on the fly. On error no samples are returned.
//
// The labels file is read first so the record count in the data header is
// checked before any record is allocated.
func Decode(dataPath, labelsPath string, opts ...Option) (datasets.Samples, error) {
	var labels []byte
	err := withFile(labelsPath, func(r io.Reader) (err error) {
		labels, err = ReadLabels(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	var records [][]byte
	err = withFile(dataPath, func(r io.Reader) (err error) {
		records, err = readMatching(r, len(labels))
		return err
	})
	if err != nil {
		return nil, err
	}
	samples, err := Samples(records, labels, opts...)
	if err != nil {
		return nil, withPath(err, dataPath)
	}
	return samples, nil
}

// DecodeReaders is Decode over already opened, uncompressed streams.
func DecodeReaders(data, labels io.Reader, opts ...Option) (datasets.Samples, error) {
	lbls, err := ReadLabels(labels)
	if err != nil {
		return nil, err
	}
	records, err := readMatching(data, len(lbls))
	if err != nil {
		return nil, err
	}
	return Samples(records, lbls, opts...)
}

// readMatching reads a data file whose header must announce count records.
func readMatching(r io.Reader, count int) ([][]byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if int64(h.Count) != int64(count) {
		return nil, formatErrorf("data has %d records but labels has %d", h.Count, count)
	}
	return readRecords(r, h)
}

func withFile(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".gz") {
		return withPath(fn(bufio.NewReader(f)), path)
	}
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return withPath(gzipError(err), path)
	}
	defer gz.Close()
	if err := fn(gz); err != nil {
		return withPath(err, path)
	}
	// the crc32 and size trailer is only checked once the stream hits EOF
	if _, err := io.Copy(io.Discard, gz); err != nil {
		return withPath(readError(err, "gzip trailer"), path)
	}
	return nil
}

func gzipError(err error) error {
	return formatErrorf("gzip: %v", err)
}

func readUint32(r io.Reader, field string) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, readError(err, "header field "+field)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// readError turns short reads and corrupt gzip streams into layout violations
// and anything else into IOError
func readError(err error, what string) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return formatErrorf("truncated %s", what)
	case errors.Is(err, gzip.ErrChecksum), errors.Is(err, gzip.ErrHeader):
		return gzipError(err)
	}
	return &IOError{Err: errors.Wrap(err, "read "+what)}
}

// ReadHeader reads and validates the 16 byte header of a data file.
func ReadHeader(r io.Reader) (h Header, err error) {
	if h.Magic, err = readUint32(r, "magic"); err != nil {
		return h, err
	}
	if h.Magic != DataMagic {
		return h, formatErrorf("data magic is 0x%08x, expected 0x%08x", h.Magic, DataMagic)
	}
	if h.Count, err = readUint32(r, "count"); err != nil {
		return h, err
	}
	if h.Rows, err = readUint32(r, "rows"); err != nil {
		return h, err
	}
	if h.Cols, err = readUint32(r, "cols"); err != nil {
		return h, err
	}
	if uint64(h.Rows)*uint64(h.Cols) > maxRecordSize {
		return h, formatErrorf("record size %dx%d is too large", h.Rows, h.Cols)
	}
	if h.Count > 0 && h.RecordSize() == 0 {
		return h, formatErrorf("%d records of empty size %dx%d", h.Count, h.Rows, h.Cols)
	}
	return h, nil
}

// ReadData reads a data file: the header followed by Count records of
// Rows*Cols bytes each, row-major, without separators.
func ReadData(r io.Reader) (Header, [][]byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return h, nil, err
	}
	records, err := readRecords(r, h)
	return h, records, err
}

func readRecords(r io.Reader, h Header) ([][]byte, error) {
	size := h.RecordSize()
	records := make([][]byte, 0, min(int(h.Count), maxPrealloc))
	for i := uint32(0); i < h.Count; i++ {
		record := make([]byte, size)
		if _, err := io.ReadFull(r, record); err != nil {
			return nil, readError(err, "record")
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadLabels reads a labels file: magic, count and count label bytes.
func ReadLabels(r io.Reader) ([]byte, error) {
	magic, err := readUint32(r, "magic")
	if err != nil {
		return nil, err
	}
	if magic != LabelsMagic {
		return nil, formatErrorf("labels magic is 0x%08x, expected 0x%08x", magic, LabelsMagic)
	}
	count, err := readUint32(r, "count")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(count)); err != nil {
		return nil, readError(err, "labels")
	}
	return buf.Bytes(), nil
}

// Classes returns the number of one-hot classes: fixed when fixed > 0,
// otherwise the largest label plus one.
func Classes(labels []byte, fixed int) int {
	if fixed > 0 {
		return fixed
	}
	var max byte
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	return int(max) + 1
}

// Samples converts raw records and labels into normalized, one-hot samples.
func Samples(records [][]byte, labels []byte, opts ...Option) (datasets.Samples, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(records) != len(labels) {
		return nil, formatErrorf("data has %d records but labels has %d", len(records), len(labels))
	}
	classes := Classes(labels, o.classes)
	samples := make(datasets.Samples, len(records))
	for i, record := range records {
		if int(labels[i]) >= classes {
			return nil, formatErrorf("label %d of record %d is outside %d classes", labels[i], i, classes)
		}
		input := make([]float64, len(record))
		for j, b := range record {
			input[j] = float64(b) / 255
		}
		output := make([]float64, classes)
		output[labels[i]] = 1
		samples[i] = datasets.Sample{Input: input, Output: output}
	}
	return samples, nil
}
