// Package output provides the interface and configuration and implementation
// for writers. The output spreadsheet is the primary artifact of a run;
// writers are secondary sinks for the same answers (stdout, a json file or
// a results API).
package output

import (
	"fmt"

	"github.com/jjansen/chatpilot/internal/types"
)

// Writer defines the interface for all writers that are responsible
// for writing the recorded answers to a specific output.
type Writer interface {
	Write(answerChan <-chan types.Answer)
	// WriteStatus writes the run status to an output
	WriteStatus(status types.RunStatus)
}

// WriterConfig defines the necessary paramters to make a new writer
// which is responsible for writing the recorded answers to a specific
// output eg. stdout.
type WriterConfig struct {
	Type        WriterType `yaml:"type" env:"WRITER_TYPE" env-default:"stdout"`
	Uri         string     `yaml:"uri"`
	User        string     `yaml:"user" env:"WRITER_USER"`         // we want to be able to pass credentials via env vars
	Password    string     `yaml:"password" env:"WRITER_PASSWORD"` // we want to be able to pass credentials via env vars
	FileDir     string     `yaml:"filedir"`
	UriStatus   string     `yaml:"uri_status"`
	WriteStatus bool       `yaml:"write_status"`
	BatchSize   int        `yaml:"batch_size,omitempty"`
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
	API_WRITER_TYPE    WriterType = "api"
)

// NewWriter returns a new writer depending on the writer type
func NewWriter(wc *WriterConfig) (Writer, error) {
	switch wc.Type {
	case STDOUT_WRITER_TYPE:
		return NewStdoutWriter(wc), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	case API_WRITER_TYPE:
		return NewAPIWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}
