package solr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EngineError represents a structured error from the engine.
type EngineError struct {
	Status  int
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error (%d): %s", e.Status, e.Message)
}

// errorResponse is the error envelope Solr returns on failed requests.
type errorResponse struct {
	Error struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Msg == "" {
		return &EngineError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	status := er.Error.Code
	if status == 0 {
		status = resp.StatusCode
	}
	return &EngineError{Status: status, Message: er.Error.Msg}
}
