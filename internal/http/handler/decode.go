package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

var errEmptyBody = errors.New("request body is required")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
}

func internalError(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func pageRequestFromQuery(r *http.Request) (repository.PageRequest, error) {
	var req repository.PageRequest
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, errors.New("page must be a positive integer")
		}
		req.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, errors.New("page_size must be a positive integer")
		}
		req.PageSize = n
	}
	return req, nil
}
