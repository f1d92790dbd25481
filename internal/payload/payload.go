// Package payload defines the immutable data contracts flowing between
// pipeline steps: the Payload consumed by a processor and the Result it emits.
package payload

import "fmt"

// Status classifies the outcome of a processor execution.
type Status string

const (
	// StatusSuccess marks a successful execution.
	StatusSuccess Status = "success"
	// StatusFailure marks a terminal failure of the branch carrying it.
	StatusFailure Status = "failure"
	// StatusSkipped indicates the executor never ran the step, typically
	// because every dependency failed.
	StatusSkipped Status = "skipped"
)

// Payload is the unit of data flowing between steps. JobID and DocumentID
// never change across a run; ParentDocumentID and PageNumber identify
// fan-out children. A PageNumber of zero means the payload does not
// represent a specific page.
type Payload struct {
	JobID            string   `json:"job_id"`
	FileName         string   `json:"file_name"`
	FileContent      []byte   `json:"file_content,omitempty"`
	DocumentID       string   `json:"document_id"`
	ParentDocumentID string   `json:"parent_document_id,omitempty"`
	PageNumber       int      `json:"page_number,omitempty"`
	Results          []Result `json:"results,omitempty"`
}

// HasPage reports whether the payload represents a specific page.
func (p Payload) HasPage() bool {
	return p.PageNumber > 0
}

// Child derives a fan-out payload for the given page. Lineage is preserved:
// the child's ParentDocumentID is this payload's DocumentID, and JobID and
// DocumentID carry over unchanged.
func (p Payload) Child(page int, fileName string, content []byte) Payload {
	return Payload{
		JobID:            p.JobID,
		FileName:         fileName,
		FileContent:      content,
		DocumentID:       p.DocumentID,
		ParentDocumentID: p.DocumentID,
		PageNumber:       page,
	}
}

// Successor derives the 1:1 follow-up payload carrying replaced bytes and the
// appended result history. The input payload is never mutated; Results is
// copied before the append.
func (p Payload) Successor(content []byte, res Result) Payload {
	history := make([]Result, 0, len(p.Results)+1)
	history = append(history, p.Results...)
	history = append(history, res)

	return Payload{
		JobID:            p.JobID,
		FileName:         p.FileName,
		FileContent:      content,
		DocumentID:       p.DocumentID,
		ParentDocumentID: p.ParentDocumentID,
		PageNumber:       p.PageNumber,
		Results:          history,
	}
}

func (p Payload) String() string {
	if p.HasPage() {
		return fmt.Sprintf("%s (page %d of %s)", p.FileName, p.PageNumber, p.ParentDocumentID)
	}
	return p.FileName
}
