package depgraph

import (
	"bytes"
	"encoding/json"
)

// Fields of a path edge that nothing downstream reads. Dropping them along
// with all whitespace roughly halves multi-gigabyte paths responses before
// they are cached or decoded.
var droppedEdgeFields = map[string]bool{
	"jsonVersion": true,
	"idx":         true,
}

// MinimizePaths rewrites a paths response without whitespace and without
// unused edge fields. The input must be valid JSON.
func MinimizePaths(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out bytes.Buffer
	out.Grow(len(data) / 2)
	if err := minimizeValue(dec, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func minimizeValue(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	return minimizeToken(dec, out, tok)
}

func minimizeToken(dec *json.Decoder, out *bytes.Buffer, tok json.Token) error {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return minimizeObject(dec, out)
		case '[':
			return minimizeArray(dec, out)
		}
		return nil
	default:
		return writeScalar(out, tok)
	}
}

func minimizeObject(dec *json.Decoder, out *bytes.Buffer) error {
	out.WriteByte('{')
	first := true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		if droppedEdgeFields[key] {
			if err := discardValue(dec); err != nil {
				return err
			}
			continue
		}
		if !first {
			out.WriteByte(',')
		}
		first = false
		if err := writeScalar(out, key); err != nil {
			return err
		}
		out.WriteByte(':')
		if err := minimizeValue(dec, out); err != nil {
			return err
		}
	}
	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	out.WriteByte('}')
	return nil
}

func minimizeArray(dec *json.Decoder, out *bytes.Buffer) error {
	out.WriteByte('[')
	first := true
	for dec.More() {
		if !first {
			out.WriteByte(',')
		}
		first = false
		if err := minimizeValue(dec, out); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	out.WriteByte(']')
	return nil
}

// discardValue consumes one complete value from the decoder.
func discardValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim == '}' || delim == ']' {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func writeScalar(out *bytes.Buffer, tok json.Token) error {
	switch v := tok.(type) {
	case nil:
		out.WriteString("null")
		return nil
	case json.Number:
		out.WriteString(v.String())
		return nil
	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
		return nil
	case string:
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out.Write(enc)
		return nil
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out.Write(enc)
		return nil
	}
}
