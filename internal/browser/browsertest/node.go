package browsertest

import (
	"fmt"

	"github.com/Spok95/portal-bot/internal/browser"
)

// Node is a fake DOM element. Builders return the node for chaining.
type Node struct {
	d *Driver

	text     string
	attrs    map[string]string
	children map[string][]*Node
	onClick  func(d *Driver)
	selText  string

	value    string
	selected string
	clicks   int
}

func NewNode(text string) *Node {
	return &Node{text: text, attrs: map[string]string{}, children: map[string][]*Node{}}
}

func (n *Node) WithAttr(name, value string) *Node {
	n.attrs[name] = value
	if name == "value" {
		n.value = value
	}
	return n
}

// WithChild registers nodes returned by a relative lookup on n.
func (n *Node) WithChild(xpath string, kids ...*Node) *Node {
	n.children[xpath] = kids
	return n
}

func (n *Node) WithSelectedText(text string) *Node {
	n.selText = text
	return n
}

func (n *Node) OnClick(fn func(d *Driver)) *Node {
	n.onClick = fn
	return n
}

func (n *Node) Clicks() int { return n.clicks }
func (n *Node) Filled() string { return n.value }
func (n *Node) Selected() string { return n.selected }
func (n *Node) SetText(t string) { n.text = t }

func (n *Node) Text() (string, error) { return n.text, nil }

func (n *Node) Attr(name string) (string, error) { return n.attrs[name], nil }

func (n *Node) Value() (string, error) { return n.value, nil }

func (n *Node) Click() error {
	n.clicks++
	if n.onClick != nil {
		n.onClick(n.d)
	}
	return nil
}

func (n *Node) Fill(text string) error {
	n.value = text
	return nil
}

func (n *Node) SelectValue(value string) error {
	n.selected = value
	return nil
}

func (n *Node) SelectedText() (string, error) { return n.selText, nil }

func (n *Node) Find(xpath string) (browser.Element, error) {
	kids := n.children[xpath]
	if len(kids) == 0 {
		return nil, fmt.Errorf("%s: %w", xpath, browser.ErrNotFound)
	}
	kids[0].d = n.d
	return kids[0], nil
}

func (n *Node) FindAll(xpath string) ([]browser.Element, error) {
	for _, k := range n.children[xpath] {
		k.d = n.d
	}
	return elements(n.children[xpath]), nil
}
