package ontorag

import (
	"errors"

	"github.com/ontorag/ontorag/extract"
	"github.com/ontorag/ontorag/loader"
)

var (
	// ErrConfig is returned for missing or invalid configuration.
	ErrConfig = errors.New("ontorag: invalid configuration")

	// ErrDocumentNotFound is returned when a document ID does not exist
	// in the output directory.
	ErrDocumentNotFound = errors.New("ontorag: document not found")

	// ErrUnsupportedFormat is returned by Ingest for unrecognized file
	// formats.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat

	// ErrLLMParse marks a chunk whose LLM reply is not valid JSON after
	// the strict-JSON retry. At pipeline level this is non-fatal: the
	// chunk is dropped with a warning.
	ErrLLMParse = extract.ErrLLMParse

	// ErrNoSchemaCard is returned when an operation needs a schema card
	// that has not been built yet.
	ErrNoSchemaCard = errors.New("ontorag: no schema card built yet")

	// ErrNoProposal is returned when building a card for a document that
	// has no extracted proposal.
	ErrNoProposal = errors.New("ontorag: no schema proposal extracted yet")
)
