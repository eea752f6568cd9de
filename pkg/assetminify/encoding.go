package assetminify

import (
	"fmt"
	"path"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// i18nDir is the directory name that marks translation files.
const i18nDir = "i18n"

// legacyEncodings maps a translation file stem to the code page older mods
// were saved in. zh and ko were always UTF-8; decoding them as UTF-8 replaces
// stray bytes with U+FFFD.
var legacyEncodings = map[string]encoding.Encoding{
	"ja": japanese.ShiftJIS,
	"zh": unicode.UTF8,
	"ko": unicode.UTF8,
	"hu": charmap.Windows1250,
	"ru": charmap.Windows1251,
	"de": charmap.Windows1252,
	"es": charmap.Windows1252,
	"fr": charmap.Windows1252,
	"it": charmap.Windows1252,
	"pt": charmap.Windows1252,
	"tr": charmap.Windows1254,
}

// legacyEncoding returns the encoding for a non UTF-8 JSON file at rel. Only
// <dir>/i18n/<stem>.json with a known stem qualifies.
func legacyEncoding(rel string) (encoding.Encoding, error) {
	if path.Base(path.Dir(rel)) != i18nDir || util.Ext(rel) != "json" {
		return nil, fmt.Errorf("%w: %s is not UTF-8 and not a translation file", perr.ErrUnsupportedEncoding, rel)
	}
	enc, ok := legacyEncodings[util.FileStem(rel)]
	if !ok {
		return nil, fmt.Errorf("%w: no known encoding for translation %s", perr.ErrUnsupportedEncoding, rel)
	}
	return enc, nil
}

// toUTF8 converts b from the legacy encoding chosen for rel.
func toUTF8(rel string, b []byte) ([]byte, error) {
	enc, err := legacyEncoding(rel)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: failed decoding %s: %w", perr.ErrUnsupportedEncoding, rel, err)
	}
	return out, nil
}
