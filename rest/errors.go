package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ClientError is returned for 4xx responses.
type ClientError struct {
	StatusCode int64
	Code       string
	Msg        string
	Headers    http.Header
	Data       any
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error (status %d): %s", e.StatusCode, e.Msg)
}

// ServerError is returned for 5xx responses.
type ServerError struct {
	StatusCode int64
	Text       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Text)
}

// DecodeError is returned when a 2xx body does not match the expected shape.
type DecodeError struct {
	Path string
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v (body: %s)", e.Path, e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func handleException(status int, headers http.Header, body []byte) error {
	statusCode := int64(status)

	if statusCode < 400 {
		return nil
	}

	if statusCode >= 500 {
		return &ServerError{
			StatusCode: statusCode,
			Text:       string(body),
		}
	}

	clientErr := &ClientError{
		StatusCode: statusCode,
		Msg:        string(body),
		Headers:    headers,
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return clientErr
	}
	if errResp.Code == "" && errResp.Msg == "" {
		return clientErr
	}

	clientErr.Code = errResp.Code
	clientErr.Msg = errResp.Msg
	clientErr.Data = errResp.Data
	return clientErr
}
