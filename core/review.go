package core

// Revision is one corrective full-document rewrite made during QA.
type Revision struct {
	Attempt int    `json:"attempt"`
	Draft   string `json:"draft"`
	Diff    string `json:"diff,omitempty"`
}

// Review summarizes the Coordinator's bounded QA pass over the final draft.
type Review struct {
	// Initial is the candidate report handed to QA.
	Initial string `json:"initial"`
	// Final is the returned text: the last draft, rewritten or not.
	Final string `json:"final"`
	// Revisions lists every rewrite in order, at most MaxEdits.
	Revisions []Revision `json:"revisions,omitempty"`
	// Approved is true when the reviewer accepted a draft.
	Approved bool `json:"approved"`
	// Exhausted is true when MaxEdits rewrites were made without approval.
	Exhausted bool `json:"exhausted"`
	MaxEdits  int  `json:"max_edits"`
}

// Edits returns the number of rewrites applied.
func (r *Review) Edits() int {
	if r == nil {
		return 0
	}
	return len(r.Revisions)
}
