// Package formatter converts flat XML data dumps (a root element holding many
// <row .../> elements whose fields are attributes) into delimited records
// suitable for bulk database loading.
//
// The conversion is a single forward pass over the document: each row start
// becomes one newline-terminated record as soon as it is read, so memory use
// does not grow with the size of the input.
package formatter

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// RowElement is the tag name of a data row in the dump format.
const RowElement = "row"

// NodeType is the structural kind of a node produced by a NodeStream.
type NodeType int

const (
	NodeOther NodeType = iota
	NodeElementStart
	NodeElementEnd
	NodeText
	NodeComment
	NodeProcInst
	NodeDirective
)

func (t NodeType) String() string {
	switch t {
	case NodeElementStart:
		return "element-start"
	case NodeElementEnd:
		return "element-end"
	case NodeText:
		return "text"
	case NodeComment:
		return "comment"
	case NodeProcInst:
		return "proc-inst"
	case NodeDirective:
		return "directive"
	default:
		return "other"
	}
}

// Node is a read-only view of the current position in an XML stream. It is
// only valid until the next call to NodeStream.Next.
type Node interface {
	Type() NodeType
	Name() string
	// Attr returns the value of the attribute with exactly this local name.
	Attr(name string) (string, bool)
}

// NodeStream is a forward-only pull source of nodes. Next returns io.EOF once
// the document is exhausted.
type NodeStream interface {
	Next() (Node, error)
}

// xmlNode adapts a token from encoding/xml to Node.
type xmlNode struct {
	typ   NodeType
	name  string
	attrs []xml.Attr
}

func (n *xmlNode) Type() NodeType { return n.typ }
func (n *xmlNode) Name() string   { return n.name }

// Attr matches the attribute's name as written, prefix included, so "Id"
// never matches "x:Id".
func (n *xmlNode) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if qualified(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// qualified renders a raw (untranslated) name as written: "prefix:local" or
// "local".
func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// xmlStream walks a document with encoding/xml in strict mode. Self-closing
// elements yield a start node followed by an end node. Names are read raw so
// prefixes are kept; open elements are tracked to verify end tags.
type xmlStream struct {
	dec  *xml.Decoder
	node xmlNode
	open []string
}

// NewXMLStream returns a NodeStream over the XML document read from r.
// Documents that declare a non-UTF-8 encoding are transcoded on the fly.
func NewXMLStream(r io.Reader) NodeStream {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	return &xmlStream{dec: dec}
}

func (s *xmlStream) Next() (Node, error) {
	tok, err := s.dec.RawToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(s.open) > 0 {
				return nil, s.errorf("unexpected EOF: element <%s> not closed", s.open[len(s.open)-1])
			}
			return nil, io.EOF
		}
		return nil, s.errorf("%w", err)
	}

	// The node is reused between calls; callers must not retain it.
	s.node = xmlNode{}
	switch t := tok.(type) {
	case xml.StartElement:
		s.node.typ = NodeElementStart
		s.node.name = qualified(t.Name)
		s.node.attrs = t.Attr
		s.open = append(s.open, s.node.name)
	case xml.EndElement:
		name := qualified(t.Name)
		if len(s.open) == 0 {
			return nil, s.errorf("unexpected end element </%s>", name)
		}
		if top := s.open[len(s.open)-1]; top != name {
			return nil, s.errorf("element <%s> closed by </%s>", top, name)
		}
		s.open = s.open[:len(s.open)-1]
		s.node.typ = NodeElementEnd
		s.node.name = name
	case xml.CharData:
		s.node.typ = NodeText
	case xml.Comment:
		s.node.typ = NodeComment
	case xml.ProcInst:
		s.node.typ = NodeProcInst
		s.node.name = t.Target
	case xml.Directive:
		s.node.typ = NodeDirective
	default:
		s.node.typ = NodeOther
	}
	return &s.node, nil
}

func (s *xmlStream) errorf(format string, a ...any) error {
	line, col := s.dec.InputPos()
	return fmt.Errorf("xml: line %d col %d: "+format, append([]any{line, col}, a...)...)
}

// IsRowStart reports whether n opens a data row: an element-start node named
// exactly "row". A prefixed element such as <x:row> is not a row.
func IsRowStart(n Node) bool {
	return n.Type() == NodeElementStart && n.Name() == RowElement
}
