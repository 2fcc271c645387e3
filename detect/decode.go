package detect

import (
	"image"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// decodeRows scans numBoxes output rows of rowSize values each and collects
// the candidates passing scoreThreshold as parallel box/score/class slices.
// Boxes are converted from center form to top-left form, still in network
// coordinates. Rows are gated on objectness before any class score is read;
// the class scan keeps the first class on equal scores.
func decodeRows(block []float32, numBoxes, rowSize int, scoreThreshold float64) ([]image.Rectangle, []float64, []int) {
	numClasses := rowSize - 5

	var (
		boxes    []image.Rectangle
		scores   []float64
		classIDs []int
	)
	for i := 0; i < numBoxes; i++ {
		row := block[i*rowSize : (i+1)*rowSize]

		objectness := row[4]
		if float64(objectness) < scoreThreshold {
			continue
		}

		maxClassScore := 0.0
		maxScoreIndex := 0
		for c := 0; c < numClasses; c++ {
			if v := float64(row[5+c]); v > maxClassScore {
				maxClassScore = v
				maxScoreIndex = c
			}
		}
		score := float64(objectness) * maxClassScore
		if score < scoreThreshold {
			continue
		}

		w := row[2]
		h := row[3]
		x := row[0] - w/2
		y := row[1] - h/2

		boxes = append(boxes, image.Rect(int(x), int(y), int(x)+int(w), int(y)+int(h)))
		scores = append(scores, score)
		classIDs = append(classIDs, maxScoreIndex)
	}
	return boxes, scores, classIDs
}

// decodeOutput turns the host output block for one batch slot into final
// detections: threshold filtering, suppression, then the mapping back to the
// original image's coordinates recorded during preprocessing.
func (d *Detector) decodeOutput(index int) []Detection {
	dims := d.outputBinding.Dims()
	numBoxes, rowSize := dims[1], dims[2]

	data := d.hostOutput.Data().([]float32)
	block := data[index*numBoxes*rowSize : (index+1)*numBoxes*rowSize]

	boxes, scores, classIDs := decodeRows(block, numBoxes, rowSize, d.scoreThreshold)
	kept := nonMaxSuppression(boxes, scores, d.nmsThreshold)

	detections := make([]Detection, 0, len(kept))
	for _, j := range kept {
		bbox := d.preproc.TransformBbox(index, boxes[j])
		score := utils.Clamp(scores[j], 0, 1)
		var label string
		if d.classes.Loaded() {
			label, _ = d.classes.Name(classIDs[j])
		}
		detections = append(detections, NewDetection(bbox, score, classIDs[j], label))
	}
	return detections
}
