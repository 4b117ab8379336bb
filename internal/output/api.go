package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jjansen/chatpilot/internal/types"
)

// APIWriter represents a writer that posts recorded answers to a custom
// API, eg. a result collection service fed by several batch runs.
type APIWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewAPIWriter returns a new APIWriter
func NewAPIWriter(wc *WriterConfig) (*APIWriter, error) {
	if wc.Uri == "" {
		return nil, errors.New("uri needs to be set for the APIWriter")
	}
	if wc.WriteStatus && wc.UriStatus == "" {
		return nil, errors.New("if write_status is true, uri_status needs to be set")
	}
	if wc.BatchSize == 0 {
		wc.BatchSize = 100 // default
	}
	return &APIWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(API_WRITER_TYPE))),
	}, nil
}

func (w *APIWriter) Write(answerChan <-chan types.Answer) {
	client := &http.Client{
		Timeout: time.Second * 60,
	}

	nrAnswersWritten := 0
	batch := []types.Answer{}

	for answer := range answerChan {
		batch = append(batch, answer)
		if len(batch) == w.BatchSize {
			nrAnswersWritten += w.writeBatch(client, batch)
			batch = []types.Answer{}
		}
	}

	nrAnswersWritten += w.writeBatch(client, batch)
	w.logger.Info(fmt.Sprintf("wrote %d answers to the api", nrAnswersWritten))
}

func (w *APIWriter) WriteStatus(status types.RunStatus) {
	client := &http.Client{
		Timeout: time.Second * 60,
	}
	statusJSON, err := json.Marshal(status)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while marshaling run status: %v", err))
		return
	}
	req, _ := http.NewRequest("POST", w.UriStatus, bytes.NewBuffer(statusJSON))
	req.Header = map[string][]string{
		"Content-Type": {"application/json"},
	}
	req.SetBasicAuth(w.User, w.Password)
	resp, err := client.Do(req)
	if err != nil {
		w.logger.Error(fmt.Sprintf("error while sending post request for run status: %v", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			w.logger.Error(fmt.Sprintf("error while reading post request response: %v", err))
		} else {
			w.logger.Error(fmt.Sprintf("error while posting run status. Status Code: %d Response: %s", resp.StatusCode, body))
		}
		return
	}
	w.logger.Info(fmt.Sprintf("successfully posted run status for service '%s'", status.ServiceName))
}

func (w *APIWriter) writeBatch(client *http.Client, batch []types.Answer) int {
	if len(batch) == 0 {
		return 0
	}
	if err := w.persistBatch(client, batch); err != nil {
		w.logger.Error(fmt.Sprintf("error while posting batch: %v", err))
		return 0
	}
	return len(batch)
}

func (w *APIWriter) persistBatch(client *http.Client, batch []types.Answer) error {
	answersJSON, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	req, _ := http.NewRequest("POST", w.Uri, bytes.NewBuffer(answersJSON))
	req.Header = map[string][]string{
		"Content-Type": {"application/json"},
	}
	req.SetBasicAuth(w.User, w.Password)
	resp, err := client.Do(req)
	if err != nil {
		w.logger.Debug(fmt.Sprintf("post request body %s", answersJSON))
		return fmt.Errorf("error while sending post request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 201 && resp.StatusCode != 200 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error while reading post request response: %v", err)
		}
		return fmt.Errorf("error while adding new answers. Status Code: %d Response: %s", resp.StatusCode, body)
	}
	return nil
}
