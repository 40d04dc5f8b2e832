package value

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

type nodeKind int

const (
	nullNode nodeKind = iota
	stringNode
	numberNode
	boolNode
	arrayNode
	objectNode
)

// node is the tree built by the text encoder before rendering.
type node struct {
	kind  nodeKind
	str   string
	num   float64
	b     bool
	keys  []string
	elems []*node
}

type treeBuilder struct{}

func (treeBuilder) MakeNull() *node            { return &node{kind: nullNode} }
func (treeBuilder) MakeString(s string) *node  { return &node{kind: stringNode, str: s} }
func (treeBuilder) MakeNumber(f float64) *node { return &node{kind: numberNode, num: f} }
func (treeBuilder) MakeBool(b bool) *node      { return &node{kind: boolNode, b: b} }
func (treeBuilder) MakeArray() *node           { return &node{kind: arrayNode} }
func (treeBuilder) MakeObject() *node          { return &node{kind: objectNode} }
func (treeBuilder) ArrayAppend(arr, v *node)   { arr.elems = append(arr.elems, v) }
func (treeBuilder) Destroy(*node)              {}
func (treeBuilder) ObjectAppend(obj *node, key string, v *node) {
	obj.keys = append(obj.keys, key)
	obj.elems = append(obj.elems, v)
}

// Encode renders v as JSON text, which is also valid Jsonnet code. It applies the same
// dispatch rules as Build, so a value that encodes here also converts for the engine.
func Encode(v any) (string, error) {
	root, err := Build[*node](treeBuilder{}, v)
	if err != nil {
		return "", err
	}

	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	writeNode(stream, root)
	if stream.Error != nil {
		return "", fmt.Errorf("failed to encode value: %w", stream.Error)
	}
	return string(stream.Buffer()), nil
}

func writeNode(stream *jsoniter.Stream, n *node) {
	switch n.kind {
	case nullNode:
		stream.WriteNil()
	case stringNode:
		stream.WriteString(n.str)
	case numberNode:
		stream.WriteFloat64(n.num)
	case boolNode:
		stream.WriteBool(n.b)
	case arrayNode:
		stream.WriteArrayStart()
		for i, elem := range n.elems {
			if i > 0 {
				stream.WriteMore()
			}
			writeNode(stream, elem)
		}
		stream.WriteArrayEnd()
	case objectNode:
		stream.WriteObjectStart()
		for i, key := range n.keys {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(key)
			writeNode(stream, n.elems[i])
		}
		stream.WriteObjectEnd()
	}
}
