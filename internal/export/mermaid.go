package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// Class definitions shared by both diagrams, one per similarity band plus
// added, removed, and failed nodes.
var classDefs = []string{
	"classDef verySimilar fill:#d4edda,stroke:#28a745",
	"classDef similar fill:#e8f4d4,stroke:#8bc34a",
	"classDef partial fill:#fff3cd,stroke:#ffc107",
	"classDef different fill:#f8d7da,stroke:#dc3545",
	"classDef added fill:#d1ecf1,stroke:#17a2b8",
	"classDef removed fill:#e2e3e5,stroke:#6c757d,stroke-dasharray:3",
	"classDef failed fill:#f5c6cb,stroke:#721c24",
}

var bucketClasses = []string{"verySimilar", "similar", "partial", "different"}

// nodeIDs hands out alphanumeric Mermaid node IDs.
type nodeIDs struct {
	ids  map[string]string
	next int
}

func (n *nodeIDs) get(key string) string {
	if n.ids == nil {
		n.ids = make(map[string]string)
	}
	if id, ok := n.ids[key]; ok {
		return id
	}
	id := fmt.Sprintf("N%d", n.next)
	n.next++
	n.ids[key] = id
	return id
}

// DirectoryMermaid produces a Mermaid graph TD diagram of a directory
// comparison. Files are grouped by parent directory and colored by
// similarity band; files present on one side only are drawn as added or
// removed.
func DirectoryMermaid(dc *analysis.DirectoryComparison) string {
	type node struct {
		path, label, class string
	}
	groups := make(map[string][]node)
	add := func(p, label, class string) {
		dir := path.Dir(p)
		groups[dir] = append(groups[dir], node{path: p, label: label, class: class})
	}

	for _, fc := range dc.Files {
		if fc.Result == nil {
			add(fc.Path, path.Base(fc.Path)+"<br/>error", "failed")
			continue
		}
		score := fc.Result.SimilarityScore
		add(fc.Path, fmt.Sprintf("%s<br/>%s", path.Base(fc.Path), percent(score)), bucketClasses[bucketOf(score)])
	}
	for _, p := range dc.OnlyInFirst {
		add(p, path.Base(p)+"<br/>removed", "removed")
	}
	for _, p := range dc.OnlyInSecond {
		add(p, path.Base(p)+"<br/>added", "added")
	}

	dirs := make([]string, 0, len(groups))
	for d := range groups {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var ids nodeIDs
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, d := range dirs {
		nodes := groups[d]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].path < nodes[j].path })

		indent := "  "
		if d != "." {
			sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", ids.get(d+"/"), escape(d)))
			indent = "    "
		}
		for _, n := range nodes {
			sb.WriteString(fmt.Sprintf("%s%s[\"%s\"]:::%s\n", indent, ids.get(n.path), escape(n.label), n.class))
		}
		if d != "." {
			sb.WriteString("  end\n")
		}
	}
	writeClassDefs(&sb)
	return sb.String()
}

// FileMermaid produces a Mermaid graph LR diagram linking a compared file to
// the entities added to and removed from it.
func FileMermaid(fc *analysis.FileComparison) string {
	var ids nodeIDs
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	name := path.Base(fc.Path2)
	root := ids.get(fc.Path2)
	if fc.Result == nil {
		sb.WriteString(fmt.Sprintf("  %s[\"%s<br/>error\"]:::failed\n", root, escape(name)))
		writeClassDefs(&sb)
		return sb.String()
	}

	score := fc.Result.SimilarityScore
	sb.WriteString(fmt.Sprintf("  %s[\"%s<br/>%s\"]:::%s\n", root, escape(name), percent(score), bucketClasses[bucketOf(score)]))

	cmp := fc.Result.Structural.Comparison
	if cmp != nil {
		kinds := []struct {
			kind string
			diff structure.EntityDiff
		}{
			{"function", cmp.Functions},
			{"class", cmp.Classes},
			{"variable", cmp.Variables},
			{"import", cmp.Imports},
		}
		for _, k := range kinds {
			for _, n := range k.diff.Removed {
				id := ids.get("-" + k.kind + ":" + n)
				sb.WriteString(fmt.Sprintf("  %s[\"%s %s\"]:::removed\n", id, k.kind, escape(n)))
				sb.WriteString(fmt.Sprintf("  %s -.-x %s\n", root, id))
			}
			for _, n := range k.diff.Added {
				id := ids.get("+" + k.kind + ":" + n)
				sb.WriteString(fmt.Sprintf("  %s[\"%s %s\"]:::added\n", id, k.kind, escape(n)))
				sb.WriteString(fmt.Sprintf("  %s --> %s\n", root, id))
			}
		}
	}
	writeClassDefs(&sb)
	return sb.String()
}

func writeClassDefs(sb *strings.Builder) {
	for _, c := range classDefs {
		sb.WriteString("  " + c + "\n")
	}
}

// escape keeps labels inside a quoted Mermaid node.
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
