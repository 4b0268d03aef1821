package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Validate checks a document before anything is written. All failed checks
// are reported together in an *InvalidDocumentError.
func Validate(doc *Document) error {
	if doc == nil {
		return &InvalidDocumentError{Problems: []string{"document is empty"}}
	}

	var problems []string
	if doc.Metadata == nil {
		problems = append(problems, "metadata block is missing")
	} else {
		if doc.Metadata.Version != FormatVersion {
			problems = append(problems, fmt.Sprintf("unsupported version %q, want %q", doc.Metadata.Version, FormatVersion))
		}
		if !strings.HasPrefix(doc.Metadata.ProductTag, ProductFamily) {
			problems = append(problems, fmt.Sprintf("product tag %q is not a %s backup", doc.Metadata.ProductTag, ProductFamily))
		}
	}
	if doc.Account == nil {
		problems = append(problems, "account block is missing")
	}

	if len(problems) > 0 {
		return &InvalidDocumentError{Problems: problems}
	}
	return nil
}

// Decode parses a JSON document. Malformed input is reported as an
// *InvalidDocumentError; Decode does not call Validate.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &InvalidDocumentError{Problems: []string{"malformed JSON: " + err.Error()}}
	}
	return &doc, nil
}
