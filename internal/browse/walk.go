// Package browse renders a pre-order walk of the object tree
// (clientcontext.BrowseEntry, as produced by Context.Browse) into the
// two presentation formats spec §6/§9 calls for: the CLI's flat
// "tree"/indented "browse" line formats, and the SCGI façade's XML
// document. Both share a single switch over object.Kind (spec §9's
// "a sum type with an explicit match is the idiomatic substitute for
// the original's per-type visitor dispatch"), kept outside
// internal/object so neither renderer entangles the object model with
// presentation concerns.
//
// Grounded directly on original_source's src/cli/tree_visitor.cpp,
// src/cli/browse_visitor.cpp and src/scgi/xml_visitor.cpp.
package browse

import (
	"encoding/xml"
	"strings"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/clientcontext"
	"github.com/decof-project/decofd/internal/object"
	"github.com/decof-project/decofd/pkg/value/grammar"
)

// WriteTreeLine appends one flat "<FQN> NODE|EVENT|PARAM [RO|RW] <TYPE>"
// line to b (spec §6), grounded on tree_visitor.cpp's write_param (RO
// iff writelevel() == Forbidden).
func WriteTreeLine(b *strings.Builder, e clientcontext.BrowseEntry) {
	kind := e.Object.Kind().String()
	b.WriteString(e.Object.FQN())
	b.WriteByte(' ')
	b.WriteString(kind)
	if kind == "PARAM" {
		roRW := "RW"
		if e.Object.WriteLevel() == access.Forbidden {
			roRW = "RO"
		}
		b.WriteByte(' ')
		b.WriteString(roRW)
		b.WriteByte(' ')
		b.WriteString(e.Object.Kind().TypeName())
	}
	b.WriteByte('\n')
}

// WriteBrowseLine appends one indented subtree line (spec §4.7's
// "browse"/"param-disp"), grounded on browse_visitor.cpp: 2 spaces of
// indentation per ancestor depth, a leading ':' for every non-root
// entry, " = <value>" suffix for readable non-Node objects. A Node's
// own value -- the child-name sequence -- is never printed, matching
// the original even though Node satisfies Readable.
func WriteBrowseLine(b *strings.Builder, e clientcontext.BrowseEntry) {
	b.WriteString(strings.Repeat("  ", e.Depth))
	if e.Depth > 0 {
		b.WriteByte(':')
	}
	b.WriteString(e.Object.Name())

	if _, isNode := e.Object.(*object.Node); !isNode {
		if readable, ok := e.Object.(object.Readable); ok {
			if v, err := readable.Read(); err == nil {
				b.WriteString(" = ")
				b.WriteString(grammar.Encode(v))
			}
		}
	}
	b.WriteByte('\n')
}

// xmlDoc mirrors the document xml_visitor.cpp emits: a <system> root
// wrapping one top-level <module> (the dictionary root), with every
// descendant Node rendered as a nested <xtypedef>, leaf parameters as
// <param>, and events as <cmd>. The original builds this bottom-up with
// an explicit node_stack_ because its visitor only sees one node at a
// time during an iterative walk with deferred close tags; re-expressed
// here as ordinary bottom-up construction of a tree of Go structs once
// a pointer-built intermediate tree is finished, the natural equivalent
// once the walk is a pre-order slice instead of a callback stream.
type xmlDoc struct {
	XMLName     xml.Name  `xml:"system"`
	Name        string    `xml:"name,attr"`
	Version     string    `xml:"version,attr"`
	Description string    `xml:"description"`
	Module      xmlModule `xml:"module"`
}

type xmlModule struct {
	Name        string        `xml:"name,attr"`
	Description string        `xml:"description"`
	Params      []xmlParam    `xml:"param"`
	Cmds        []xmlCmd      `xml:"cmd"`
	Xtypedefs   []xmlXtypedef `xml:"xtypedef"`
}

type xmlXtypedef struct {
	Name        string        `xml:"name,attr"`
	Description string        `xml:"description"`
	Params      []xmlParam    `xml:"param"`
	Cmds        []xmlCmd      `xml:"cmd"`
	Xtypedefs   []xmlXtypedef `xml:"xtypedef"`
}

type xmlParam struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Mode        string `xml:"mode,attr,omitempty"`
	ReadLevel   string `xml:"readlevel,attr,omitempty"`
	WriteLevel  string `xml:"writelevel,attr,omitempty"`
	Description string `xml:"description"`
}

type xmlCmd struct {
	Name        string `xml:"name,attr"`
	ExecLevel   string `xml:"execlevel,attr,omitempty"`
	Description string `xml:"description"`
}

// nodeBuilder is the mutable, pointer-linked intermediate tree built
// while walking the flat, depth-indexed BrowseEntry slice; it is
// converted to the value-typed xmlModule/xmlXtypedef tree once the walk
// completes.
type nodeBuilder struct {
	name     string
	params   []xmlParam
	cmds     []xmlCmd
	children []*nodeBuilder
}

// XML renders entries (a pre-order walk starting at the dictionary
// root, as produced by Context.Browse("", ...)) as the SCGI façade's
// GET /browse document (spec §6/§9).
func XML(entries []clientcontext.BrowseEntry) []byte {
	doc := xmlDoc{Name: "DeCoF server", Version: "1.0", Description: " "}

	if len(entries) > 0 {
		root := &nodeBuilder{name: entries[0].Object.Name()}
		stack := []*nodeBuilder{root}

		// The artificial 'ul' parameter and 'change-ul' command are
		// synthesized for the root module only, matching xml_visitor's
		// special case for `node->parent() == nullptr`.
		root.params = append(root.params, xmlParam{Name: "ul", Type: "INTEGER", Mode: "readonly", Description: " "})
		root.cmds = append(root.cmds, xmlCmd{Name: "change-ul", Description: " "})

		for _, e := range entries[1:] {
			parent := stack[e.Depth-1]

			switch obj := e.Object.(type) {
			case *object.Node:
				child := &nodeBuilder{name: obj.Name()}
				parent.children = append(parent.children, child)
				stack = append(stack[:e.Depth], child)
			case *object.Event:
				parent.cmds = append(parent.cmds, xmlCmd{
					Name:        obj.Name(),
					ExecLevel:   obj.WriteLevel().String(),
					Description: " ",
				})
			default:
				parent.params = append(parent.params, paramElement(e.Object))
			}
		}

		doc.Module = xmlModule{
			Name:        root.name,
			Description: " ",
			Params:      root.params,
			Cmds:        root.cmds,
			Xtypedefs:   buildXtypedefs(root.children),
		}
	}

	out, _ := xml.MarshalIndent(doc, "", "  ")
	return append([]byte(xml.Header), out...)
}

func buildXtypedefs(children []*nodeBuilder) []xmlXtypedef {
	if len(children) == 0 {
		return nil
	}
	out := make([]xmlXtypedef, len(children))
	for i, c := range children {
		out[i] = xmlXtypedef{
			Name:        c.name,
			Description: " ",
			Params:      c.params,
			Cmds:        c.cmds,
			Xtypedefs:   buildXtypedefs(c.children),
		}
	}
	return out
}

func paramElement(obj object.Object) xmlParam {
	p := xmlParam{Name: obj.Name(), Type: obj.Kind().TypeName(), Description: " "}
	if _, writable := obj.(object.Writable); writable {
		p.Mode = "readwrite"
		p.ReadLevel = obj.ReadLevel().String()
		p.WriteLevel = obj.WriteLevel().String()
	} else {
		p.Mode = "readonly"
	}
	return p
}
