// Package annotation stores per-sample caption quality annotations as JSON
// files, one per dataset sample.
package annotation

import "encoding/json"

// RatingFields are the six quality axes an annotator scores. An annotation
// is only complete once every one of them is filled.
var RatingFields = []string{"overall", "camera", "subject", "motion", "scene", "spatial"}

// Segment marks a span of the caption text an annotator flagged.
type Segment struct {
	StartIndex *int   `json:"startIndex"`
	EndIndex   *int   `json:"endIndex"`
	Category   string `json:"category,omitempty"`
	Text       string `json:"text,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// Indexed reports whether both character indices are present.
func (s *Segment) Indexed() bool {
	return s.StartIndex != nil && s.EndIndex != nil
}

// Annotation is one annotator's review of a dataset sample. Rating pointers
// are nil until scored. Extra holds fields the UI sends that the server does
// not interpret, preserved across save/load.
type Annotation struct {
	Overall  *float64  `json:"overall"`
	Camera   *float64  `json:"camera"`
	Subject  *float64  `json:"subject"`
	Motion   *float64  `json:"motion"`
	Scene    *float64  `json:"scene"`
	Spatial  *float64  `json:"spatial"`
	Segments []Segment `json:"segments,omitempty"`

	Annotator string `json:"annotator,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ratings returns the six axis pointers in RatingFields order.
func (a *Annotation) ratings() []*float64 {
	return []*float64{a.Overall, a.Camera, a.Subject, a.Motion, a.Scene, a.Spatial}
}

// IsComplete reports whether the annotation can count as finished: every
// rating is filled and every segment, if any exist, carries both character
// indices.
func (a *Annotation) IsComplete() bool {
	if a == nil {
		return false
	}
	for _, rating := range a.ratings() {
		if rating == nil {
			return false
		}
	}
	for i := range a.Segments {
		if !a.Segments[i].Indexed() {
			return false
		}
	}
	return true
}

// Status is the annotation state shown in dataset listings.
func (a *Annotation) Status() string {
	switch {
	case a == nil:
		return "pending"
	case a.IsComplete():
		return "completed"
	default:
		return "incomplete"
	}
}

// annotationAlias avoids recursion in the custom JSON methods.
type annotationAlias Annotation

var knownFields = map[string]bool{
	"overall": true, "camera": true, "subject": true, "motion": true,
	"scene": true, "spatial": true, "segments": true,
	"annotator": true, "timestamp": true, "notes": true,
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*annotationAlias)(a)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if knownFields[key] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = value
	}
	return nil
}

func (a *Annotation) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*annotationAlias)(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range a.Extra {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
