package serialization

import (
	"encoding/binary"
	"io"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

// MaxVarBytesLength is the largest byte string the deserializer accepts.
const MaxVarBytesLength = 32 * 1024 * 1024

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case int32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(e))
		return write(w, buf[:4])

	case uint32:
		binary.LittleEndian.PutUint32(buf[:4], e)
		return write(w, buf[:4])

	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(e))
		return write(w, buf[:])

	case uint64:
		binary.LittleEndian.PutUint64(buf[:], e)
		return write(w, buf[:])

	case uint8:
		buf[0] = e
		return write(w, buf[:1])

	case externalapi.DomainHash:
		return write(w, e[:])

	case *externalapi.DomainHash:
		return write(w, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to writeElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case *int32:
		if err := readFull(r, buf[:4]); err != nil {
			return err
		}
		*e = int32(binary.LittleEndian.Uint32(buf[:4]))
		return nil

	case *uint32:
		if err := readFull(r, buf[:4]); err != nil {
			return err
		}
		*e = binary.LittleEndian.Uint32(buf[:4])
		return nil

	case *int64:
		if err := readFull(r, buf[:]); err != nil {
			return err
		}
		*e = int64(binary.LittleEndian.Uint64(buf[:]))
		return nil

	case *uint64:
		if err := readFull(r, buf[:]); err != nil {
			return err
		}
		*e = binary.LittleEndian.Uint64(buf[:])
		return nil

	case *uint8:
		if err := readFull(r, buf[:1]); err != nil {
			return err
		}
		*e = buf[0]
		return nil

	case *externalapi.DomainHash:
		return readFull(r, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteVarInt writes value as a compact size integer.
func WriteVarInt(w io.Writer, value uint64) error {
	switch {
	case value < 0xfd:
		return WriteElement(w, uint8(value))
	case value <= 0xffff:
		var buf [3]byte
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(value))
		return write(w, buf[:])
	case value <= 0xffffffff:
		return WriteElements(w, uint8(0xfe), uint32(value))
	default:
		return WriteElements(w, uint8(0xff), value)
	}
}

// ReadVarInt reads a compact size integer. Non canonical encodings are
// rejected.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	if err := ReadElement(r, &discriminant); err != nil {
		return 0, err
	}

	var value, min uint64
	switch discriminant {
	case 0xff:
		if err := ReadElement(r, &value); err != nil {
			return 0, err
		}
		min = 0x100000000
	case 0xfe:
		var v uint32
		if err := ReadElement(r, &v); err != nil {
			return 0, err
		}
		value, min = uint64(v), 0x10000
	case 0xfd:
		var buf [2]byte
		if err := readFull(r, buf[:]); err != nil {
			return 0, err
		}
		value, min = uint64(binary.LittleEndian.Uint16(buf[:])), 0xfd
	default:
		return uint64(discriminant), nil
	}

	if value < min {
		return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
			"encode a value greater than %x", value, discriminant, min)
	}
	return value, nil
}

// VarIntSerializeSize returns the number of bytes WriteVarInt uses for value.
func VarIntSerializeSize(value uint64) int {
	switch {
	case value < 0xfd:
		return 1
	case value <= 0xffff:
		return 3
	case value <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// WriteVarBytes writes a compact size length followed by data.
func WriteVarBytes(w io.Writer, data []byte) error {
	if err := WriteVarInt(w, uint64(len(data))); err != nil {
		return err
	}
	return write(w, data)
}

// ReadVarBytes reads a compact size length prefixed byte string of at most
// maxAllowed bytes.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, errors.Wrapf(errMalformed, "%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
	}
	data := make([]byte, count)
	if err := readFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// VarBytesSerializeSize returns the number of bytes WriteVarBytes uses for data.
func VarBytesSerializeSize(data []byte) int {
	return VarIntSerializeSize(uint64(len(data))) + len(data)
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}

func write(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return errors.WithStack(err)
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return errors.WithStack(err)
}
