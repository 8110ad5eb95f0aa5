package httpapi

// RESPONSE ENVELOPE:
// Every answer from the API has the same shape:
//
//	{"status": "success", "message": "Prayer request created", "data": {...}}
//	{"status": "error",   "message": "Title and content cannot be empty", "data": null}
//
// "data" is an object (single record), an array (list) or null (delete).
// Some errors (a 404 from an unknown id) come back as an HTML page instead;
// for those the HTTP status text becomes the message.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pensaconnect/connect/internal/apperror"
	"github.com/pensaconnect/connect/internal/model"
)

const (
	envSuccess = "success"
	envError   = "error"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decoding response envelope: %w", err)
	}
	if env.Status != envSuccess && env.Status != envError {
		return envelope{}, fmt.Errorf("unexpected envelope status %q", env.Status)
	}
	return env, nil
}

// statusError maps an HTTP status to an application error kind.
//
// ERROR MAPPING:
// This is the mirror image of a server's error handler: the server turned its
// domain errors into 400/404/...; here we turn them back so the service and the
// CLI can branch with errors.Is instead of looking at status codes.
func statusError(status int, message string) *apperror.AppError {
	kind := apperror.ErrUpstream
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = apperror.ErrValidation
	case http.StatusUnauthorized:
		kind = apperror.ErrUnauthorized
	case http.StatusForbidden:
		kind = apperror.ErrForbidden
	case http.StatusNotFound:
		kind = apperror.ErrNotFound
	case http.StatusConflict:
		kind = apperror.ErrConflict
	}
	return &apperror.AppError{Err: kind, Message: message}
}

// decodeData parses data keeping numbers as json.Number, so ids above 2^53
// survive untouched until model.FromTransport reads them.
func decodeData(data json.RawMessage) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperror.Shape("data", "invalid JSON: "+err.Error())
	}
	return v, nil
}

func decodeObject(data json.RawMessage) (model.Mapping, error) {
	v, err := decodeData(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperror.Shape("data", fmt.Sprintf("expected an object, got %s", jsonKind(v)))
	}
	return model.Mapping(obj), nil
}

func decodeList(data json.RawMessage) ([]model.Mapping, error) {
	v, err := decodeData(data)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, apperror.Shape("data", fmt.Sprintf("expected an array, got %s", jsonKind(v)))
	}

	out := make([]model.Mapping, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, apperror.Shape(fmt.Sprintf("data[%d]", i), fmt.Sprintf("expected an object, got %s", jsonKind(item)))
		}
		out = append(out, model.Mapping(obj))
	}
	return out, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
