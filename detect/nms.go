package detect

import (
	"image"
	"sort"
)

// iou returns the intersection-over-union of two boxes, in [0,1].
func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()) + float64(b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}

// nonMaxSuppression greedily filters overlapping candidate boxes and returns
// the indices of the survivors, ordered by descending score. Candidates are
// visited by descending score, equal scores in first-seen order, and a
// candidate survives only while its IoU with every prior survivor stays below
// nmsThreshold. Suppression is class-agnostic: boxes of different classes
// still suppress each other.
func nonMaxSuppression(boxes []image.Rectangle, scores []float64, nmsThreshold float64) []int {
	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	kept := make([]int, 0, len(boxes))
	for _, i := range order {
		keep := true
		for _, j := range kept {
			if iou(boxes[i], boxes[j]) >= nmsThreshold {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, i)
		}
	}
	return kept
}
