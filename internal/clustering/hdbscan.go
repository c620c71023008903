package clustering

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minDistance bounds lambda = 1/distance for coincident points.
const minDistance = 1e-12

type edge struct {
	a, b int
	w    float64
}

type merge struct {
	left, right int
	dist        float64
	size        int
}

type condensedRow struct {
	parent int
	child  int
	lambda float64
	size   int
}

// hdbscan labels the rows of data. Labels are dense from 0 in order of
// each cluster's first row; noise rows get -1.
func hdbscan(data *mat.Dense, minClusterSize, minSamples int, allowSingle bool) []int {
	n, _ := data.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	if n < 2 {
		return labels
	}

	dist := pairwiseDistances(data)
	core := coreDistances(dist, minSamples)
	tree := singleLinkage(primMST(dist, core), n)
	rows, numClusters := condense(tree, n, minClusterSize)

	selected := selectClusters(rows, n, numClusters, allowSingle && n >= minClusterSize)
	return assignLabels(rows, n, selected)
}

func pairwiseDistances(data *mat.Dense) *mat.Dense {
	n, _ := data.Dims()
	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(data.RawRowView(i), data.RawRowView(j), 2)
			dist.Set(i, j, d)
			dist.Set(j, i, d)
		}
	}
	return dist
}

// coreDistances returns, per row, the distance to its k-th nearest row
// counting the row itself.
func coreDistances(dist *mat.Dense, k int) []float64 {
	n, _ := dist.Dims()
	k = max(1, min(k, n))

	core := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist.RawRowView(i))
		sort.Float64s(row)
		core[i] = row[k-1]
	}
	return core
}

// primMST builds the minimum spanning tree of the mutual reachability graph.
func primMST(dist *mat.Dense, core []float64) []edge {
	n := len(core)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]edge, 0, n-1)
	cur := 0
	inTree[cur] = true
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			w := max(dist.At(cur, j), core[cur], core[j])
			if w < best[j] {
				best[j] = w
				from[j] = cur
			}
			if next == -1 || best[j] < best[next] {
				next = j
			}
		}
		edges = append(edges, edge{a: from[next], b: next, w: best[next]})
		inTree[next] = true
		cur = next
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].w < edges[j].w })
	return edges
}

// singleLinkage turns sorted MST edges into a merge tree. Node n+i is
// created by merges[i]; the root is node 2n-2.
func singleLinkage(edges []edge, n int) []merge {
	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
		if i < n {
			size[i] = 1
		}
	}

	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	merges := make([]merge, 0, n-1)
	next := n
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		merges = append(merges, merge{left: ra, right: rb, dist: e.w, size: size[ra] + size[rb]})
		parent[ra], parent[rb] = next, next
		size[next] = size[ra] + size[rb]
		next++
	}
	return merges
}

// condense walks the merge tree top-down and keeps only splits where both
// sides reach minClusterSize. Cluster labels start at n with the root.
func condense(merges []merge, n, minClusterSize int) ([]condensedRow, int) {
	root := 2*n - 2
	relabel := make([]int, 2*n-1)
	relabel[root] = n
	nextLabel := n + 1

	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return merges[node-n].size
	}

	var rows []condensedRow
	fallOut := func(node, label int, lambda float64) {
		for _, p := range leaves(merges, node, n) {
			rows = append(rows, condensedRow{parent: label, child: p, lambda: lambda, size: 1})
		}
	}

	queue := []int{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node < n {
			continue
		}

		m := merges[node-n]
		lambda := 1 / max(m.dist, minDistance)
		label := relabel[node]
		lc, rc := sizeOf(m.left), sizeOf(m.right)

		switch {
		case lc >= minClusterSize && rc >= minClusterSize:
			for _, child := range []int{m.left, m.right} {
				relabel[child] = nextLabel
				rows = append(rows, condensedRow{parent: label, child: nextLabel, lambda: lambda, size: sizeOf(child)})
				nextLabel++
				queue = append(queue, child)
			}
		case lc < minClusterSize && rc < minClusterSize:
			fallOut(m.left, label, lambda)
			fallOut(m.right, label, lambda)
		case lc < minClusterSize:
			relabel[m.right] = label
			fallOut(m.left, label, lambda)
			queue = append(queue, m.right)
		default:
			relabel[m.left] = label
			fallOut(m.right, label, lambda)
			queue = append(queue, m.left)
		}
	}
	return rows, nextLabel - n
}

func leaves(merges []merge, node, n int) []int {
	var out []int
	stack := []int{node}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x < n {
			out = append(out, x)
			continue
		}
		m := merges[x-n]
		stack = append(stack, m.right, m.left)
	}
	return out
}

// selectClusters runs excess-of-mass selection over the condensed tree and
// reports, per cluster offset (label-n), whether it was chosen.
func selectClusters(rows []condensedRow, n, numClusters int, rootEligible bool) []bool {
	birth := make([]float64, numClusters)
	stability := make([]float64, numClusters)
	children := make([][]int, numClusters)

	for _, r := range rows {
		if r.child >= n {
			birth[r.child-n] = r.lambda
			children[r.parent-n] = append(children[r.parent-n], r.child-n)
		}
	}
	for _, r := range rows {
		p := r.parent - n
		stability[p] += (r.lambda - birth[p]) * float64(r.size)
	}

	selected := make([]bool, numClusters)
	var deselect func(c int)
	deselect = func(c int) {
		for _, ch := range children[c] {
			selected[ch] = false
			deselect(ch)
		}
	}

	// children always carry higher labels than their parent
	for c := numClusters - 1; c >= 0; c-- {
		sub := 0.0
		for _, ch := range children[c] {
			sub += stability[ch]
		}
		// the root only wins when nothing below it persists
		if c == 0 && (!rootEligible || sub > 0) {
			continue
		}
		if len(children[c]) > 0 && sub > stability[c] {
			stability[c] = sub
			continue
		}
		selected[c] = true
		deselect(c)
	}
	return selected
}

func assignLabels(rows []condensedRow, n int, selected []bool) []int {
	pointParent := make([]int, n)
	pointLambda := make([]float64, n)
	clusterParent := make([]int, len(selected))
	clusterParent[0] = -1
	rootMax := 0.0

	for _, r := range rows {
		if r.parent == n {
			rootMax = max(rootMax, r.lambda)
		}
		if r.child < n {
			pointParent[r.child] = r.parent
			pointLambda[r.child] = r.lambda
		} else {
			clusterParent[r.child-n] = r.parent - n
		}
	}

	raw := make([]int, n)
	for p := 0; p < n; p++ {
		raw[p] = -1
		for c := pointParent[p] - n; c >= 0; c = clusterParent[c] {
			if selected[c] {
				raw[p] = c
				break
			}
		}
		// the root keeps only the points that stayed until it dissolved
		if raw[p] == 0 && pointParent[p] == n && pointLambda[p] < rootMax {
			raw[p] = -1
		}
	}

	dense := make(map[int]int)
	labels := make([]int, n)
	for p, c := range raw {
		if c < 0 {
			labels[p] = -1
			continue
		}
		id, ok := dense[c]
		if !ok {
			id = len(dense)
			dense[c] = id
		}
		labels[p] = id
	}
	return labels
}
