package detect

// Postprocessor filters or rewrites a list of detections after decoding.
// Postprocessors compose: each receives the previous one's output.
type Postprocessor func([]Detection) []Detection

// NewAreaFilter returns a postprocessor dropping detections whose bounding
// box covers fewer than area pixels in the original image.
func NewAreaFilter(area int) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.BoundingBox().Dx()*d.BoundingBox().Dy() >= area {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewScoreFilter returns a postprocessor dropping detections scoring below
// conf.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Score() >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewClassFilter returns a postprocessor keeping only detections of the
// given class ids. An empty id set keeps everything.
func NewClassFilter(classIDs ...int) Postprocessor {
	keep := make(map[int]bool, len(classIDs))
	for _, id := range classIDs {
		keep[id] = true
	}
	return func(in []Detection) []Detection {
		if len(keep) == 0 {
			return in
		}
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if keep[d.ClassID()] {
				out = append(out, d)
			}
		}
		return out
	}
}
