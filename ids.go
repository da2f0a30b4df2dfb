package weir

import (
	"io"

	"golang.org/x/net/html"
)

// scanIDs streams r as HTML5 and collects every element's id attribute
// value, for the filesystem fragment-existence check of §4.8.
func scanIDs(r io.Reader) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	tok := html.NewTokenizer(r)

	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			err := tok.Err()
			if err == io.EOF {
				err = nil
			}
			return ids, err
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := tok.TagName()
			if !hasAttr {
				continue
			}
			for {
				key, val, more := tok.TagAttr()
				if string(key) == "id" && len(val) > 0 {
					ids[string(val)] = struct{}{}
				}
				if !more {
					break
				}
			}
		}
	}
}
