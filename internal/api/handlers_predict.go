// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/agrisense/internal/history"
	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/predict"
)

// predictionResponse is a Result plus the legacy domain key ("crop" or
// "fertilizer") that older clients read the label from.
type predictionResponse struct {
	predict.Result
	Crop       string `json:"crop,omitempty"`
	Fertilizer string `json:"fertilizer,omitempty"`
}

func newPredictionResponse(res predict.Result) predictionResponse {
	out := predictionResponse{Result: res}
	if !res.OK {
		return out
	}
	switch res.Domain {
	case predict.DomainCrop:
		out.Crop = res.Label
	case predict.DomainFertilizer:
		out.Fertilizer = res.Label
	}
	return out
}

// CropPredict handles POST /api/crop/predict.
func (h *Handler) CropPredict(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, predict.DomainCrop)
}

// FertilizerPredict handles POST /api/fertilizer/predict.
func (h *Handler) FertilizerPredict(w http.ResponseWriter, r *http.Request) {
	h.predict(w, r, predict.DomainFertilizer)
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request, domain string) {
	svc, ok := h.services[domain]
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown prediction domain: "+domain, nil)
		return
	}

	raw, err := readPayload(w, r, h.cfg.Server.MaxBodyBytes)
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body too large", nil)
		return
	}

	res := svc.Predict(r.Context(), raw)
	if res.OK {
		h.record(r, svc, res)
	}
	respondJSON(w, res.Kind.HTTPStatus(), newPredictionResponse(res))
}

func (h *Handler) record(r *http.Request, svc *predict.Service, res predict.Result) {
	if h.recorder == nil {
		return
	}
	requestID := logging.RequestIDFromContext(r.Context())
	entry, ok := history.NewEntry(res, svc.Domain().Spec.Columns(), requestID, time.Now())
	if !ok {
		return
	}
	h.recorder.Record(r.Context(), &entry)
}

// readPayload decodes the request body into a flat mapping. Form bodies
// keep the first value per key. JSON bodies that are empty, malformed or
// not an object yield an empty mapping. The only error is an oversized
// body.
func readPayload(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return tooLarge(err)
		}
		return flattenForm(r), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(limit); err != nil {
			return tooLarge(err)
		}
		return flattenForm(r), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return tooLarge(err)
	}
	return decodeObject(body), nil
}

// tooLarge turns a body limit failure into an error and anything else
// into an empty payload.
func tooLarge(err error) (map[string]any, error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, err
	}
	return map[string]any{}, nil
}

func flattenForm(r *http.Request) map[string]any {
	out := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

// decodeObject keeps numbers as json.Number so integers survive exactly.
func decodeObject(body []byte) map[string]any {
	out := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
