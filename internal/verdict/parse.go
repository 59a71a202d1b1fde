package verdict

import (
	"encoding/json"
	"strings"

	"github.com/nao1215/opentip/internal/model"
)

// payload is the part of the hash lookup / upload response we read.
// Sections are decoded one at a time so a malformed DetectionsInfo does
// not hide the file status.
type payload struct {
	FileGeneralInfo json.RawMessage `json:"FileGeneralInfo"`
	DetectionsInfo  json.RawMessage `json:"DetectionsInfo"`
}

type generalInfo struct {
	FileStatus *string `json:"FileStatus"`
}

type detection struct {
	DetectionName string `json:"DetectionName"`
}

// Parse interprets a service payload.
//
// A payload that is not a JSON object, or has no string
// FileGeneralInfo.FileStatus, yields SeverityUnparsed with the raw text as
// the verdict. Otherwise the verdict text is the file status, followed by
// ": " and the comma-joined detection names when the file is not benign
// and detections are listed. Detection entries that cannot be read are
// ignored.
func Parse(raw []byte) model.Verdict {
	unparsed := model.Verdict{Text: string(raw), Severity: model.SeverityUnparsed}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.FileGeneralInfo == nil {
		return unparsed
	}
	var info generalInfo
	if err := json.Unmarshal(p.FileGeneralInfo, &info); err != nil || info.FileStatus == nil {
		return unparsed
	}

	status := *info.FileStatus
	v := model.Verdict{
		FileStatus: status,
		Text:       status,
		Severity:   model.SeverityForStatus(status),
		Detections: detectionNames(p.DetectionsInfo),
	}

	if v.Severity == model.SeverityMalicious && v.Detections != nil {
		v.Text += ": " + strings.Join(v.Detections, ",")
	}
	return v
}

// detectionNames returns the names in a DetectionsInfo array, skipping
// entries without a string name. Nil when there are none.
func detectionNames(raw json.RawMessage) []string {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		var d detection
		if err := json.Unmarshal(e, &d); err != nil || d.DetectionName == "" {
			continue
		}
		names = append(names, d.DetectionName)
	}
	return names
}

// ForOutcome returns the verdict for any outcome. Outcomes without a
// payload are labelled with their status.
func ForOutcome(o model.Outcome) model.Verdict {
	switch o.Status {
	case model.StatusReported:
		return Parse(o.Payload)
	case model.StatusFatal:
		text := o.Status.String()
		if o.Err != nil {
			text = o.Err.Error()
		}
		return model.Verdict{Text: text, Severity: model.SeverityInfo}
	default:
		return model.Verdict{Text: o.Status.String(), Severity: model.SeverityInfo}
	}
}
