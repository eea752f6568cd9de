package assetminify

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
)

// xmlSpace is the XML definition of white space.
const xmlSpace = " \t\r\n"

// minifyXML removes formatting white space from a Tiled map or tileset.
// Element order, attribute order, comments, processing instructions and CDATA
// sections are kept.
func minifyXML(data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrXMLSyntax, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: document has no root element", perr.ErrXMLSyntax)
	}

	trimText(&doc.Element)

	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrXMLSyntax, err)
	}
	return out, nil
}

// trimText trims every text node below e and drops the ones left empty.
func trimText(e *etree.Element) {
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch t := e.Child[i].(type) {
		case *etree.CharData:
			if t.IsCData() {
				continue
			}
			trimmed := strings.Trim(t.Data, xmlSpace)
			if trimmed == "" {
				e.RemoveChildAt(i)
				continue
			}
			t.SetData(trimmed)
		case *etree.Element:
			trimText(t)
		}
	}
}
