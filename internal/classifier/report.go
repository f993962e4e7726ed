package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ayusman/silexa/internal/features"
)

// ClassReport holds the held-out scores of one label.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes a model's performance on a labeled sample.
type Report struct {
	Accuracy float64       `json:"accuracy"`
	Samples  int           `json:"samples"`
	Classes  []ClassReport `json:"classes"`
}

// Evaluate classifies every vector in x and scores the predictions against truth.
// An empty sample yields a zero accuracy.
func Evaluate(m Model, x []features.Vector, truth []string) (Report, error) {
	if len(x) != len(truth) {
		return Report{}, fmt.Errorf("evaluate: %d vectors but %d labels", len(x), len(truth))
	}

	type tally struct{ tp, fp, support int }
	tallies := make(map[string]*tally)
	get := func(label string) *tally {
		t, ok := tallies[label]
		if !ok {
			t = &tally{}
			tallies[label] = t
		}
		return t
	}

	correct := 0
	for i, v := range x {
		pred, err := m.Predict(v)
		if err != nil {
			return Report{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		get(truth[i]).support++
		if pred.Label == truth[i] {
			correct++
			get(pred.Label).tp++
		} else {
			get(pred.Label).fp++
		}
	}

	r := Report{Samples: len(x)}
	if len(x) > 0 {
		r.Accuracy = float64(correct) / float64(len(x))
	}

	labels := make([]string, 0, len(tallies))
	for l := range tallies {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		t := tallies[l]
		c := ClassReport{Label: l, Support: t.support}
		if t.tp+t.fp > 0 {
			c.Precision = float64(t.tp) / float64(t.tp+t.fp)
		}
		if t.support > 0 {
			c.Recall = float64(t.tp) / float64(t.support)
		}
		if c.Precision+c.Recall > 0 {
			c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
		}
		r.Classes = append(r.Classes, c)
	}
	return r, nil
}

// String renders the report as a fixed-width table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %9s %9s %9s %9s\n", "label", "precision", "recall", "f1", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%-16s %9.2f %9.2f %9.2f %9d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(&b, "%-16s %39.2f %9d\n", "accuracy", r.Accuracy, r.Samples)
	return b.String()
}
