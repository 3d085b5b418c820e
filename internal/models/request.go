package models

// PredictRequest is the body of POST /predict.
// Metrics stay untyped so each element can be validated with its index.
type PredictRequest struct {
	Metrics []interface{} `json:"metrics"`
}

// DetectRequest is the body of POST /detect-anomalies.
// Data is untyped so a non-list payload can be told apart from a missing one.
type DetectRequest struct {
	Data interface{} `json:"data"`
}

// Series returns Data as a list, or false when it is missing or not a list
func (r *DetectRequest) Series() ([]interface{}, bool) {
	values, ok := r.Data.([]interface{})
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values, true
}
