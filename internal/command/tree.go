// Package command implements the settings command grammar: a declarative
// routing table from command tokens to mutation handlers.
package command

import (
	"context"
	"strings"

	"guildconf/internal/chat"
	"guildconf/internal/settings"
)

// Handler runs a terminal leaf. It replies itself on success and returns
// user-input conditions as *usererr.Error.
type Handler func(ctx context.Context, inv *Invocation) error

// Node is one entry of the routing table. Descending into a node appends its
// Key, if any, to the settings path being built.
type Node struct {
	Token       string
	Description string
	Key         *settings.Key
	Children    []*Node
	Run         Handler
}

// Option is a row of a capability listing.
type Option struct {
	Name        string
	Description string
}

// Invocation is what a handler receives: the source message, the path the
// router accumulated and the tokens left after the leaf.
type Invocation struct {
	Src  chat.Message
	Path settings.Path
	Args []string
}

// Arg returns the i-th remaining token or "".
func (inv *Invocation) Arg(i int) string {
	if i < len(inv.Args) {
		return inv.Args[i]
	}
	return ""
}

// Text joins the remaining tokens from i on.
func (inv *Invocation) Text(i int) string {
	if i >= len(inv.Args) {
		return ""
	}
	return strings.Join(inv.Args[i:], " ")
}

func (n *Node) child(token string) *Node {
	for _, c := range n.Children {
		if c.Token == token {
			return c
		}
	}
	return nil
}

func (n *Node) options() []Option {
	out := make([]Option, len(n.Children))
	for i, c := range n.Children {
		out[i] = Option{Name: c.Token, Description: c.Description}
	}
	return out
}

func (n *Node) extend(p settings.Path) settings.Path {
	if n.Key == nil {
		return p
	}
	if n.Key.Indexed {
		return p.Index(n.Key.Name)
	}
	return p.Child(n.Key.Name)
}

// Route is a fully resolved leaf of the table.
type Route struct {
	Tokens []string
	Path   settings.Path
	Node   *Node
}

// Walk visits every leaf of the table in declaration order.
func Walk(root *Node, visit func(Route)) {
	var walk func(n *Node, tokens []string, p settings.Path)
	walk = func(n *Node, tokens []string, p settings.Path) {
		if n.Run != nil {
			visit(Route{Tokens: tokens, Path: p, Node: n})
			return
		}
		for _, c := range n.Children {
			next := append(append([]string(nil), tokens...), c.Token)
			walk(c, next, c.extend(p))
		}
	}
	walk(root, nil, nil)
}

func branch(token, description string, children ...*Node) *Node {
	return &Node{Token: token, Description: description, Children: children}
}

// keyed is a branch that also steps into the document.
func keyed(token, description, key string, children ...*Node) *Node {
	return &Node{Token: token, Description: description, Key: &settings.Key{Name: key}, Children: children}
}

func indexed(token, description string, children ...*Node) *Node {
	return &Node{Token: token, Description: description, Key: &settings.Key{Name: token, Indexed: true}, Children: children}
}

func leaf(token, description string, run Handler) *Node {
	return &Node{Token: token, Description: description, Run: run}
}
