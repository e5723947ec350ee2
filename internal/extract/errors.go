package extract

import "fmt"

// Reason classifies why extraction failed.
type Reason string

const (
	ReasonCorrupted         Reason = "corrupted"
	ReasonPasswordProtected Reason = "password_protected"
	ReasonScanned           Reason = "scanned"
	ReasonEmpty             Reason = "empty"
	ReasonLegacyFormat      Reason = "legacy_format"
)

// ExtractionError reports a format-specific failure the user must act on.
type ExtractionError struct {
	Format Format
	Reason Reason
	Err    error
}

func (e *ExtractionError) Error() string {
	label := e.Format.Label()
	switch e.Reason {
	case ReasonPasswordProtected:
		return fmt.Sprintf("the %s file is password-protected; remove the password and upload it again", label)
	case ReasonScanned:
		return "this PDF appears to be a scanned or image-based document without selectable text; " +
			"convert it with an OCR tool first or upload the document in a different format (Word, text)"
	case ReasonEmpty:
		return fmt.Sprintf("no readable text found in the %s file", label)
	case ReasonLegacyFormat:
		return "could not read text from this legacy Word (.doc) file; save it as .docx and upload it again"
	default:
		return fmt.Sprintf("failed to extract text from the %s file; it may be corrupted or password-protected", label)
	}
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func fail(f Format, r Reason, err error) *ExtractionError {
	return &ExtractionError{Format: f, Reason: r, Err: err}
}
