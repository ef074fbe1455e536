// Package graphviz renders the commit DAG as a GraphViz dot graph,
// adapted from the teacher's visualization/graph/graph.go
// (PrintGraphViz/GraphViz/HashShortString): there, Walk descends a
// single Merkle-trie root and draws node -> {left, right} edges. Here
// there's no single root to walk — a repository's history is a DAG of
// Commit objects each naming zero or more parents (spec §4.H/§6) — so
// the walk instead starts from one or more named refs (heads/tags) and
// follows Commit.Parents edges outward, the same shape
// repo.FindCommonAncestor's parentWalker already traverses.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/repo"
)

const numCharPrint = 8

// HashShortString truncates a commit key to its first numCharPrint
// characters for a readable dot label, the way the teacher's
// HashShortString truncates a Hash's decimal string.
func HashShortString(key string) string {
	if len(key) < numCharPrint {
		return key
	}
	return key[:numCharPrint] + "..."
}

// resolveStart resolves name to a commit key via refs.Store's
// head/tag lookup, falling back to treating name as a literal commit
// key (so a detached HEAD or a bare key can seed the graph too).
func resolveStart(ctx context.Context, odb *objectdb.DB, rs *refs.Store, name string) (string, error) {
	ref, err := rs.ResolveCommit(ctx, odb, name)
	if err == nil {
		return ref.Key, nil
	}
	if _, getErr := odb.Get(ctx, name); getErr == nil {
		return name, nil
	}
	return "", err
}

// GraphViz writes a dot digraph of the commit DAG reachable from
// startNames to w: one node per commit (labeled with its short hash
// and the first line of its message) and one edge per parent link, a
// merge commit's two-parent edges included. Mirrors the teacher's
// GraphViz(ctx, w, rootKey, mt) signature shape, generalized to start
// from several refs at once since a repository can have many heads.
func GraphViz(ctx context.Context, w io.Writer, odb *objectdb.DB, rs *refs.Store, startNames ...string) error {
	fmt.Fprintf(w, "digraph hierarchy {\nnode [fontname=Monospace,fontsize=10,shape=box]\n")

	visited := map[string]bool{}
	var queue []string
	for _, name := range startNames {
		key, err := resolveStart(ctx, odb, rs, name)
		if err != nil {
			return err
		}
		if !visited[key] {
			visited[key] = true
			queue = append(queue, key)
		}
	}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		obj, err := odb.Get(ctx, key)
		if err != nil {
			return err
		}
		commit, err := repo.DecodeCommit(obj)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\"%s\" [label=\"%s\\n%s\",style=filled];\n",
			key, HashShortString(key), firstLine(commit.Message))

		for _, p := range commit.Parents {
			fmt.Fprintf(w, "\"%s\" -> \"%s\";\n", key, p.Key)
			if !visited[p.Key] {
				visited[p.Key] = true
				queue = append(queue, p.Key)
			}
		}
	}

	fmt.Fprintf(w, "}\n")
	return nil
}

// PrintGraphViz writes the GraphViz() output for startNames to stdout
// wrapped in the teacher's banner-comment framing.
func PrintGraphViz(ctx context.Context, odb *objectdb.DB, rs *refs.Store, startNames ...string) error {
	buf := bytes.NewBufferString("")
	fmt.Fprintf(buf, "--------\nGraphViz of the commit DAG from %v\n", startNames)
	if err := GraphViz(ctx, buf, odb, rs, startNames...); err != nil {
		return err
	}
	fmt.Fprintf(buf, "End of GraphViz of the commit DAG from %v\n--------\n", startNames)
	fmt.Println(buf)
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
