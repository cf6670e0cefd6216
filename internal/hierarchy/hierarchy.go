// Package hierarchy answers ancestry questions over self-referencing parent links
// (account and company trees, task/subtask nesting).
package hierarchy

// ParentLookup returns the parent of id, or nil when id is a root or unknown.
type ParentLookup func(id int64) (*int64, error)

// WouldCreateCycle reports whether making candidate the parent of id would make id
// its own ancestor. A nil candidate never creates a cycle. The walk stops on a
// visited node, so an existing loop elsewhere in the tree cannot hang it.
func WouldCreateCycle(id int64, candidate *int64, parentOf ParentLookup) (bool, error) {
	if candidate == nil {
		return false, nil
	}
	visited := make(map[int64]struct{})
	cur := *candidate
	for {
		if cur == id {
			return true, nil
		}
		if _, seen := visited[cur]; seen {
			return false, nil
		}
		visited[cur] = struct{}{}

		parent, err := parentOf(cur)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, nil
		}
		cur = *parent
	}
}

// Link is one stored parent pointer.
type Link struct {
	ID     int64
	Parent *int64
}

// Arena is an id-indexed snapshot of parent links, loaded once and then walked
// without further queries.
type Arena struct {
	parents map[int64]*int64
}

func NewArena() *Arena {
	return &Arena{parents: make(map[int64]*int64)}
}

// ArenaOf builds an arena from loaded links.
func ArenaOf(links []Link) *Arena {
	a := NewArena()
	for _, l := range links {
		a.Set(l.ID, l.Parent)
	}
	return a
}

// Set records parent as the parent of id; nil makes id a root.
func (a *Arena) Set(id int64, parent *int64) {
	if parent == nil {
		a.parents[id] = nil
		return
	}
	p := *parent
	a.parents[id] = &p
}

// Has reports whether id is in the snapshot.
func (a *Arena) Has(id int64) bool {
	_, ok := a.parents[id]
	return ok
}

// Lookup adapts the arena to ParentLookup.
func (a *Arena) Lookup(id int64) (*int64, error) {
	return a.parents[id], nil
}

func (a *Arena) WouldCreateCycle(id int64, candidate *int64) bool {
	cyclic, _ := WouldCreateCycle(id, candidate, a.Lookup)
	return cyclic
}

// Ancestors lists the chain of parents of id, nearest first.
func (a *Arena) Ancestors(id int64) []int64 {
	var out []int64
	visited := map[int64]struct{}{id: {}}
	p := a.parents[id]
	for p != nil {
		if _, seen := visited[*p]; seen {
			break
		}
		visited[*p] = struct{}{}
		out = append(out, *p)
		p = a.parents[*p]
	}
	return out
}
