package model

// Metric compares actual and predicted labels and returns a score in [0,1].
type Metric interface {
	Score(actual, predicted []int) float64
}

// MetricFunc adapts a plain function to Metric.
type MetricFunc func(actual, predicted []int) float64

func (f MetricFunc) Score(actual, predicted []int) float64 {
	return f(actual, predicted)
}

// Accuracy is the fraction of exact label matches. Empty input scores 0.
var Accuracy Metric = MetricFunc(accuracy)

func accuracy(actual, predicted []int) float64 {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < n; i++ {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(n)
}
