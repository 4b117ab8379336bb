package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/jjansen/chatpilot/internal/types"
)

const (
	answersFilename = "answers.json"
	statusFilename  = "status.json"
)

// FileWriter represents a writer that writes to a file
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}

	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}

	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) Write(answerChan <-chan types.Answer) {
	filepath := path.Join(w.FileDir, answersFilename)
	f, err := os.Create(filepath)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while trying to open file: %v", err))
		return
	}
	defer f.Close()
	allAnswers := []types.Answer{}
	for answer := range answerChan {
		allAnswers = append(allAnswers, answer)
	}

	// json.MarshalIndent would replace certain html characters that show up
	// in answers with the corresponding Unicode replacement rune, hence the
	// encoder with HTML escaping turned off.
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(allAnswers); err != nil {
		w.logger.Error(fmt.Sprintf("error while encoding answers: %v", err))
		return
	}

	var indentBuffer bytes.Buffer
	if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
		w.logger.Error(fmt.Sprintf("error while indenting json: %v", err))
		return
	}
	if _, err = f.Write(indentBuffer.Bytes()); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing answers json to file: %v", err))
	} else {
		w.logger.Info(fmt.Sprintf("wrote %d answers to file %s", len(allAnswers), filepath))
	}
}

func (w *FileWriter) WriteStatus(status types.RunStatus) {
	filepath := path.Join(w.FileDir, statusFilename)
	f, err := os.Create(filepath)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while trying to open file: %v", err))
		return
	}
	defer f.Close()

	statusJson, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while marshalling status json: %v", err))
		return
	}

	if _, err = f.Write(statusJson); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing status json to file: %v", err))
	} else {
		w.logger.Info(fmt.Sprintf("wrote status to file %s", filepath))
	}
}
