package commenttree

import "sort"

// BuildForest converts a flat list of comments belonging to one post into a
// forest of roots with nested replies.
//
// Replies are appended to their parent in input order and are never
// re-sorted. Roots (including orphans whose parent is absent from the input)
// are stable-sorted newest first. A comment whose parent link would close a
// cycle, itself included, is kept as a root. Only the first record of a
// repeated id is kept.
func BuildForest(raws []RawComment) ([]*Comment, error) {
	nodes := make([]*Comment, 0, len(raws))
	index := make(map[string]*Comment, len(raws))
	for _, raw := range raws {
		c, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := index[c.ID]; dup {
			continue
		}
		index[c.ID] = c
		nodes = append(nodes, c)
	}

	// child id -> parent id for every link made so far; acyclic by construction
	links := make(map[string]string, len(nodes))
	roots := make([]*Comment, 0, len(nodes))
	for _, c := range nodes {
		parent, ok := index[c.ParentID]
		if c.ParentID == "" || !ok || closesCycle(links, c.ID, c.ParentID) {
			roots = append(roots, c)
			continue
		}
		links[c.ID] = parent.ID
		parent.Replies = append(parent.Replies, c)
	}

	SortRoots(roots)
	return roots, nil
}

// SortRoots orders roots newest first, keeping input order for equal times
func SortRoots(roots []*Comment) {
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
}

func closesCycle(links map[string]string, child, parent string) bool {
	for id := parent; id != ""; id = links[id] {
		if id == child {
			return true
		}
	}
	return false
}
