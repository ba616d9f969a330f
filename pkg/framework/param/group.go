package param

// Group is a node of a hierarchical parameter tree. Parameters appear in
// the flattened table in depth-first order.
type Group struct {
	Name   string
	Params []*Parameter
	Groups []*Group
}

// NewGroup creates a group holding params.
func NewGroup(name string, params ...*Parameter) *Group {
	return &Group{Name: name, Params: params}
}

// Add appends subgroups and returns g.
func (g *Group) Add(groups ...*Group) *Group {
	g.Groups = append(g.Groups, groups...)
	return g
}

// Walk visits every parameter with the slash separated path of the group
// that holds it. The root group contributes no path element.
func (g *Group) Walk(fn func(path string, p *Parameter)) {
	g.walk("", fn)
}

func (g *Group) walk(path string, fn func(path string, p *Parameter)) {
	for _, p := range g.Params {
		fn(path, p)
	}
	for _, sub := range g.Groups {
		sub.walk(path+"/"+sub.Name, fn)
	}
}

// Count returns the number of parameters in the tree.
func (g *Group) Count() int {
	n := 0
	g.Walk(func(string, *Parameter) { n++ })
	return n
}
