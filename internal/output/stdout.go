package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jjansen/chatpilot/internal/types"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct {
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(wc *WriterConfig) *StdoutWriter {
	return &StdoutWriter{
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) Write(answerChan <-chan types.Answer) {
	for answer := range answerChan {
		// Answers regularly contain markup snippets, so HTML escaping
		// has to be turned off to print them unmangled.
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(answer); err != nil {
			w.logger.Error(fmt.Sprintf("error while writing answer %v: %v", answer, err))
			continue
		}

		var indentBuffer bytes.Buffer
		if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
			w.logger.Error(fmt.Sprintf("error while writing answer %v: %v", answer, err))
			continue
		}
		fmt.Print(indentBuffer.String())
	}
}

func (w *StdoutWriter) WriteStatus(status types.RunStatus) {
	statusJson, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while marshalling status json: %v", err))
		return
	}
	w.logger.Info(fmt.Sprintf("printing run status for service '%s'", status.ServiceName))
	fmt.Println(string(statusJson))
}
