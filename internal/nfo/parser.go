package nfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// knownElements lists child element names handled by the structured VideoNFO fields.
var knownElements = map[string]bool{
	"title": true, "artist": true, "album": true, "plot": true,
	"year": true, "premiered": true, "date": true, "director": true,
	"genre": true, "musicbrainzartistid": true, "thumb": true, "fanart": true,
}

// htmlEntityReplacer handles common HTML entities that are not valid XML.
var htmlEntityReplacer = strings.NewReplacer(
	"&nbsp;", "&#160;",
	"&mdash;", "&#8212;",
	"&ndash;", "&#8211;",
	"&laquo;", "&#171;",
	"&raquo;", "&#187;",
	"&ldquo;", "&#8220;",
	"&rdquo;", "&#8221;",
	"&lsquo;", "&#8216;",
	"&rsquo;", "&#8217;",
	"&hellip;", "&#8230;",
	"&eacute;", "&#233;",
	"&egrave;", "&#232;",
	"&agrave;", "&#224;",
	"&ograve;", "&#242;",
	"&ugrave;", "&#249;",
	"&igrave;", "&#236;",
	"&ouml;", "&#246;",
	"&uuml;", "&#252;",
	"&auml;", "&#228;",
)

// ErrUnsupportedRoot is returned for sidecars that are neither movie nor musicvideo.
var ErrUnsupportedRoot = errors.New("unsupported nfo root element")

// Parse reads a Kodi-compatible movie or musicvideo sidecar from the reader.
// It handles a UTF-8 BOM and HTML entities in plot text. Unknown child
// elements are preserved for round-trip fidelity.
func Parse(r io.Reader) (*VideoNFO, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading nfo data: %w", err)
	}

	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty nfo file")
	}

	content := htmlEntityReplacer.Replace(string(data))

	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose

	n := &VideoNFO{}
	if err := parseTokens(decoder, n); err != nil {
		return nil, fmt.Errorf("parsing nfo xml: %w", err)
	}
	return n, nil
}

// parseTokens finds the root element, then hands each child to the known
// or raw handler. Both handlers consume the child's end tag.
func parseTokens(decoder *xml.Decoder, n *VideoNFO) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			if n.Root == "" {
				return ErrUnsupportedRoot
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if n.Root == "" {
				if name != RootMovie && name != RootMusicVideo {
					return fmt.Errorf("%w: <%s>", ErrUnsupportedRoot, name)
				}
				n.Root = name
				continue
			}

			if knownElements[name] {
				if err := parseKnownElement(decoder, n, name, t); err != nil {
					return err
				}
				continue
			}
			raw, err := captureRawElement(decoder, t)
			if err != nil {
				return err
			}
			n.ExtraElements = append(n.ExtraElements, RawElement{Name: name, Raw: raw})

		case xml.EndElement:
			if t.Name.Local == n.Root {
				return nil
			}
		}
	}
}

func parseKnownElement(decoder *xml.Decoder, n *VideoNFO, name string, start xml.StartElement) error {
	switch name {
	case "title":
		return decodeCharData(decoder, &n.Title)
	case "artist":
		return decodeCharData(decoder, &n.Artist)
	case "album":
		return decodeCharData(decoder, &n.Album)
	case "plot":
		return decodeCharData(decoder, &n.Plot)
	case "year":
		return decodeCharData(decoder, &n.Year)
	case "premiered", "date":
		var s string
		if err := decodeCharData(decoder, &s); err != nil {
			return err
		}
		if n.Premiered == "" {
			n.Premiered = s
		}
	case "director":
		return decodeCharData(decoder, &n.Director)
	case "genre":
		var s string
		if err := decodeCharData(decoder, &s); err != nil {
			return err
		}
		if s != "" {
			n.Genres = append(n.Genres, s)
		}
	case "musicbrainzartistid":
		return decodeCharData(decoder, &n.MusicBrainzArtistID)
	case "thumb":
		thumb := thumbFromAttrs(start)
		if err := decodeCharData(decoder, &thumb.Value); err != nil {
			return err
		}
		n.Thumbs = append(n.Thumbs, thumb)
	case "fanart":
		if n.Fanart == nil {
			n.Fanart = &Fanart{}
		}
		return parseFanart(decoder, n.Fanart)
	}
	return nil
}

func thumbFromAttrs(start xml.StartElement) Thumb {
	var thumb Thumb
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "aspect":
			thumb.Aspect = attr.Value
		case "preview":
			thumb.Preview = attr.Value
		}
	}
	return thumb
}

// parseFanart handles the nested <fanart><thumb>...</thumb></fanart> structure.
func parseFanart(decoder *xml.Decoder, fanart *Fanart) error {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "thumb" {
				if err := decoder.Skip(); err != nil {
					return err
				}
				continue
			}
			thumb := thumbFromAttrs(t)
			if err := decodeCharData(decoder, &thumb.Value); err != nil {
				return err
			}
			fanart.Thumbs = append(fanart.Thumbs, thumb)
		case xml.EndElement:
			if t.Name.Local == "fanart" {
				return nil
			}
		}
	}
}

// decodeCharData reads character data until the closing tag.
func decodeCharData(decoder *xml.Decoder, target *string) error {
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			*target = strings.TrimSpace(buf.String())
			return nil
		}
	}
}

// captureRawElement reads an unknown element and its children as raw XML bytes.
func captureRawElement(decoder *xml.Decoder, start xml.StartElement) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	if err := enc.EncodeToken(start.Copy()); err != nil {
		return nil, err
	}

	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return nil, err
		}
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes n as an indented sidecar with an XML declaration. Unknown
// elements captured by Parse are written back after the known ones.
func Write(w io.Writer, n *VideoNFO) error {
	root := n.Root
	if root == "" {
		root = RootMusicVideo
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, "<%s>\n", root)

	writeElement(&buf, "title", n.Title)
	writeElement(&buf, "artist", n.Artist)
	writeElement(&buf, "album", n.Album)
	writeElement(&buf, "plot", n.Plot)
	writeElement(&buf, "year", n.Year)
	writeElement(&buf, "premiered", n.Premiered)
	writeElement(&buf, "director", n.Director)
	for _, g := range n.Genres {
		writeElement(&buf, "genre", g)
	}
	writeElement(&buf, "musicbrainzartistid", n.MusicBrainzArtistID)

	for _, thumb := range n.Thumbs {
		buf.WriteString("  ")
		writeThumb(&buf, thumb)
	}
	if n.Fanart != nil && len(n.Fanart.Thumbs) > 0 {
		buf.WriteString("  <fanart>\n")
		for _, thumb := range n.Fanart.Thumbs {
			buf.WriteString("    ")
			writeThumb(&buf, thumb)
		}
		buf.WriteString("  </fanart>\n")
	}

	for _, extra := range n.ExtraElements {
		buf.WriteString("  ")
		buf.Write(extra.Raw)
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "</%s>\n", root)

	_, err := w.Write(buf.Bytes())
	return err
}

// textEscaper escapes markup but keeps newlines literal so multi-line
// plots stay readable in the file.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// writeElement writes a simple XML element if the value is non-empty.
func writeElement(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(buf, "  <%s>%s</%s>\n", name, textEscaper.Replace(value), name)
}

// writeThumb writes a <thumb> element with optional attributes.
func writeThumb(buf *bytes.Buffer, t Thumb) {
	buf.WriteString("<thumb")
	if t.Aspect != "" {
		fmt.Fprintf(buf, ` aspect="%s"`, textEscaper.Replace(t.Aspect))
	}
	if t.Preview != "" {
		fmt.Fprintf(buf, ` preview="%s"`, textEscaper.Replace(t.Preview))
	}
	fmt.Fprintf(buf, ">%s</thumb>\n", textEscaper.Replace(t.Value))
}

// stripBOM removes a UTF-8 BOM (EF BB BF) from the beginning of the data.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}
