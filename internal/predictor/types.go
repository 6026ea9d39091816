package predictor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Method names the explanation technique that produced a payload.
type Method string

const (
	MethodSHAP Method = "shap"
	MethodLIME Method = "lime"
)

// Contribution is one signed per-feature weight. Positive values raise the
// predicted risk.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

type Explanation struct {
	Method      Method         `json:"method"`
	BaseValue   *float64       `json:"base_value,omitempty"`
	TopFeatures []Contribution `json:"top_features,omitempty"`
	AllFeatures []Contribution `json:"all_features,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Usable reports whether the payload carries any contribution and no error.
func (e *Explanation) Usable() bool {
	return e != nil && e.Error == "" && (len(e.TopFeatures) > 0 || len(e.AllFeatures) > 0)
}

type Response struct {
	Success         bool         `json:"success"`
	Risky           bool         `json:"risky"`
	Prediction      string       `json:"prediction"`
	Probability     float64      `json:"probability"`
	Model           string       `json:"model,omitempty"`
	Explanation     *Explanation `json:"explanation,omitempty"`
	LimeExplanation *Explanation `json:"lime_explanation,omitempty"`
	Error           string       `json:"error,omitempty"`
}

var (
	ErrRejected  = errors.New("prediction rejected")
	ErrMalformed = errors.New("malformed prediction response")
)

// RejectedError is a well-formed response with success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Message)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Decode reads a prediction response. The prediction flag may be 0, 1, "Yes"
// or "No"; LIME weights may arrive as objects or [feature, weight] pairs.
func Decode(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrMalformed
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, ErrMalformed
	}

	resp := &Response{
		Success: doc.Get("success").Bool(),
		Model:   doc.Get("model").String(),
		Error:   doc.Get("error").String(),
	}

	pred := doc.Get("prediction")
	switch pred.Type {
	case gjson.Number:
		resp.Prediction = pred.Raw
		resp.Risky = pred.Float() == 1
	case gjson.String:
		resp.Prediction = pred.Str
		resp.Risky = pred.Str == "Yes"
	}

	resp.Probability = clamp01(doc.Get("probability").Float())
	resp.Explanation = decodeExplanation(doc.Get("explanation"), MethodSHAP)
	resp.LimeExplanation = decodeExplanation(doc.Get("lime_explanation"), MethodLIME)
	return resp, nil
}

func decodeExplanation(node gjson.Result, method Method) *Explanation {
	if !node.Exists() || node.Type == gjson.Null {
		return nil
	}
	expl := &Explanation{Method: method}
	if !node.IsObject() {
		expl.Error = "unexpected explanation format"
		return expl
	}
	if errMsg := node.Get("error"); errMsg.Exists() {
		expl.Error = errMsg.String()
		if expl.Error == "" {
			expl.Error = "explanation unavailable"
		}
		return expl
	}
	if bv := node.Get("base_value"); bv.Type == gjson.Number {
		v := bv.Float()
		expl.BaseValue = &v
	}
	expl.TopFeatures = decodeContributions(node.Get("top_features"))
	expl.AllFeatures = decodeContributions(node.Get("all_features"))
	if len(expl.AllFeatures) == 0 {
		expl.AllFeatures = decodeContributions(node.Get("explanation"))
	}
	return expl
}

func decodeContributions(list gjson.Result) []Contribution {
	if !list.IsArray() {
		return nil
	}
	out := []Contribution{}
	list.ForEach(func(_, item gjson.Result) bool {
		var c Contribution
		switch {
		case item.IsArray():
			pair := item.Array()
			if len(pair) < 2 {
				return true
			}
			c = Contribution{Feature: pair[0].String(), Value: pair[1].Float()}
		case item.IsObject():
			val := item.Get("shap_value")
			if !val.Exists() {
				val = item.Get("value")
			}
			if !val.Exists() {
				val = item.Get("weight")
			}
			c = Contribution{Feature: item.Get("feature").String(), Value: val.Float()}
		default:
			return true
		}
		c.Feature = strings.TrimSpace(c.Feature)
		if c.Feature == "" || math.IsNaN(c.Value) {
			return true
		}
		out = append(out, c)
		return true
	})
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
