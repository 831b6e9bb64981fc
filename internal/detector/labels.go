package detector

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediadetect/internal/domain"
)

var classLabels = map[int]string{
	0: "person",
	1: "bicycle",
	2: "car",
	3: "motorcycle",
	4: "bus",
	5: "truck",
}

// Label returns a display label for a class id.
func Label(classID float64) string {
	c := cases.Title(language.Und)
	if name, ok := classLabels[int(classID)]; ok && float64(int(classID)) == classID {
		return c.String(name)
	}
	return fmt.Sprintf("Class %g", classID)
}

// LabelCount is one row of a per-label summary.
type LabelCount struct {
	Label string
	Count int
}

// Summarize counts detections per label, most frequent first.
func Summarize(dets domain.DetectionSet) []LabelCount {
	counts := make(map[string]int)
	for _, d := range dets {
		counts[Label(d.ClassID)]++
	}
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
