package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Blob layout, version 1:
//
//	version byte
//	user id            big-endian int64
//	username           len-prefixed string (1-byte len)
//	auth provider      len-prefixed string
//	roles              1-byte count, then len-prefixed strings
//	features           1-byte count, then len-prefixed strings
//	sub start, sub end len-prefixed strings (empty when no subscription)
//	values             1-byte count, then len-prefixed key + long string value
//	created at         big-endian int64 unix seconds
//	expires at         big-endian int64 unix seconds
//
// Short strings carry a 1-byte length; value payloads (which hold stashed
// JSON) carry a 2-byte length.
const recordFormatVersionCurrent = 1

func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, r.UserID); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.Username); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.AuthProvider); err != nil {
		return nil, err
	}

	if err := writeStringSet(&buf, r.Roles); err != nil {
		return nil, err
	}
	if err := writeStringSet(&buf, r.Features); err != nil {
		return nil, err
	}

	if err := writeShortString(&buf, r.SubStart); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.SubEnd); err != nil {
		return nil, err
	}

	if len(r.Values) > 255 {
		return nil, errors.New("too many session values")
	}
	buf.WriteByte(byte(len(r.Values)))
	for key, value := range r.Values {
		if err := writeShortString(&buf, key); err != nil {
			return nil, err
		}
		if err := writeLongString(&buf, value); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid session record version")
	}

	r := &Record{}

	if err := binary.Read(reader, binary.BigEndian, &r.UserID); err != nil {
		return nil, err
	}
	if r.Username, err = readShortString(reader); err != nil {
		return nil, err
	}
	if r.AuthProvider, err = readShortString(reader); err != nil {
		return nil, err
	}

	if r.Roles, err = readStringSet(reader); err != nil {
		return nil, err
	}
	if r.Features, err = readStringSet(reader); err != nil {
		return nil, err
	}

	if r.SubStart, err = readShortString(reader); err != nil {
		return nil, err
	}
	if r.SubEnd, err = readShortString(reader); err != nil {
		return nil, err
	}

	count, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Values = make(map[string]string, count)
	for i := 0; i < int(count); i++ {
		key, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		value, err := readLongString(reader)
		if err != nil {
			return nil, err
		}
		r.Values[key] = value
	}

	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}

	return r, nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return errors.New("string too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeLongString(buf *bytes.Buffer, s string) error {
	if len(s) > 65535 {
		return errors.New("value too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readLongString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeStringSet(buf *bytes.Buffer, values []string) error {
	if len(values) > 255 {
		return errors.New("too many set entries")
	}
	buf.WriteByte(byte(len(values)))
	for _, v := range values {
		if err := writeShortString(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func readStringSet(reader *bytes.Reader) ([]string, error) {
	count, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	out := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
