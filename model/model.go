package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fields is the flat field-name -> value mapping of a supervision form.
// Multi-value inputs are flattened to a single comma-joined string before
// they get here; the original set membership is not recoverable afterwards.
type Fields map[string]string

// Submission is a completed, finalized form instance. On the wire and in
// storage it is one flat JSON object: the form fields plus the two system
// fields "timestamp" and "submittedBy".
type Submission struct {
	Timestamp   string
	SubmittedBy string
	Fields      Fields
}

// NewSubmission flattens raw form values into a Submission. Multi-value
// fields (checkbox groups) are joined with ", ".
func NewSubmission(values map[string][]string, submittedBy string, now time.Time) Submission {
	fields := Fields{}
	for name, vs := range values {
		fields[name] = strings.Join(vs, ", ")
	}
	return Submission{
		Timestamp:   now.UTC().Format(time.RFC3339),
		SubmittedBy: submittedBy,
		Fields:      fields,
	}
}

func (s Submission) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(s.Fields)+2)
	for k, v := range s.Fields {
		flat[k] = v
	}
	flat["timestamp"] = s.Timestamp
	flat["submittedBy"] = s.SubmittedBy
	return json.Marshal(flat)
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	flat := map[string]string{}
	err := json.Unmarshal(data, &flat)
	if err != nil {
		return err
	}

	s.Timestamp = flat["timestamp"]
	s.SubmittedBy = flat["submittedBy"]
	delete(flat, "timestamp")
	delete(flat, "submittedBy")
	s.Fields = flat
	return nil
}

// PendingEntry is one undelivered submission in the pending queue. The id is
// minted once at enqueue time and is the only identity used when a retry
// sweep removes delivered entries.
type PendingEntry struct {
	ID     string     `json:"id"`
	Record Submission `json:"record"`
}

// Draft is an in-progress form instance. Like Submission it serializes flat,
// with the reserved keys draftId, savedAt and currentSection on top of the
// form fields.
type Draft struct {
	DraftID        string
	SavedAt        string
	CurrentSection int
	Fields         Fields
}

func (d Draft) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		flat[k] = v
	}
	flat["draftId"] = d.DraftID
	flat["savedAt"] = d.SavedAt
	flat["currentSection"] = d.CurrentSection
	return json.Marshal(flat)
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	flat := map[string]any{}
	err := json.Unmarshal(data, &flat)
	if err != nil {
		return err
	}

	d.DraftID, _ = flat["draftId"].(string)
	d.SavedAt, _ = flat["savedAt"].(string)
	switch n := flat["currentSection"].(type) {
	case float64:
		d.CurrentSection = int(n)
	case string:
		d.CurrentSection, _ = strconv.Atoi(n)
	}
	delete(flat, "draftId")
	delete(flat, "savedAt")
	delete(flat, "currentSection")

	d.Fields = Fields{}
	for k, v := range flat {
		d.Fields[k] = fmt.Sprint(v)
	}
	return nil
}

// MintDraftID produces the stable id assigned at a draft's first save.
func MintDraftID(now time.Time) string {
	return "draft_" + strconv.FormatInt(now.UnixMilli(), 10)
}

var reNoIdent = regexp.MustCompile(`\W+`)

// SheetKey normalizes a spreadsheet column header into the key used by the
// gateway's query rows: lower case, runs of non-word characters collapsed to
// single underscores ("Facility Name" -> "facility_name").
func SheetKey(header string) string {
	key := strings.ToLower(header)
	key = reNoIdent.ReplaceAllLiteralString(key, " ")
	return strings.Join(strings.Fields(key), "_")
}

// SortedFieldNames is used by callers that need a deterministic field order.
func (f Fields) SortedFieldNames() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
