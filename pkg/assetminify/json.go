package assetminify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/tailscale/hujson"
	"github.com/tdewolff/minify/v2"
	"github.com/titanous/json5"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
)

const jsonMediaType = "application/json"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// minifyJSON turns relaxed JSON into compact standard JSON. Non UTF-8 input
// is only accepted for translation files with a known legacy encoding.
func minifyJSON(m *minify.M, rel string, data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		converted, err := toUTF8(rel, data)
		if err != nil {
			return nil, err
		}
		data = converted
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	std, err := standardizeJSON(data)
	if err != nil {
		return nil, err
	}

	out, err := m.Bytes(jsonMediaType, std)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrMalformedJSON, err)
	}
	return out, nil
}

// standardizeJSON accepts comments and trailing commas while keeping the
// source key order. Anything beyond that goes through the JSON5 parser, which
// loses key order.
func standardizeJSON(data []byte) ([]byte, error) {
	v, hujsonErr := hujson.Parse(data)
	if hujsonErr == nil {
		v.Standardize()
		return v.Pack(), nil
	}

	out, json5Err := json5ToJSON(data)
	if json5Err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrMalformedJSON, errors.Join(hujsonErr, json5Err))
	}
	return out, nil
}

func json5ToJSON(data []byte) ([]byte, error) {
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	v, err := toStdJSON(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// toStdJSON rewrites JSON5-only numbers into JSON numbers.
func toStdJSON(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			c, err := toStdJSON(child)
			if err != nil {
				return nil, err
			}
			t[k] = c
		}
		return t, nil
	case []any:
		for i, child := range t {
			c, err := toStdJSON(child)
			if err != nil {
				return nil, err
			}
			t[i] = c
		}
		return t, nil
	case json5.Number:
		n, err := jsonNumber(string(t))
		if err != nil {
			return nil, err
		}
		return json.Number(n), nil
	default:
		return v, nil
	}
}

// jsonNumber converts a JSON5 number literal to JSON text without going
// through a float, so no digits are lost. Literals that are already JSON are
// returned unchanged.
func jsonNumber(lit string) (string, error) {
	if json.Valid([]byte(lit)) {
		return lit, nil
	}

	sign := ""
	body := lit
	switch {
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	case strings.HasPrefix(body, "-"):
		sign, body = "-", body[1:]
	}

	var out string
	if hex, ok := cutHexPrefix(body); ok {
		n, ok := new(big.Int).SetString(hex, 16)
		if !ok {
			return "", fmt.Errorf("invalid number %q", lit)
		}
		out = n.String()
	} else {
		mantissa, exp := body, ""
		if i := strings.IndexAny(body, "eE"); i >= 0 {
			mantissa, exp = body[:i], body[i:]
		}
		if strings.HasPrefix(mantissa, ".") {
			mantissa = "0" + mantissa
		}
		if strings.HasSuffix(mantissa, ".") {
			mantissa += "0"
		}
		out = mantissa + exp
	}
	out = sign + out

	if !json.Valid([]byte(out)) {
		return "", fmt.Errorf("number %q has no JSON representation", lit)
	}
	return out, nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}
