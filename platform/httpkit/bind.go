package httpkit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"clinic_marketing_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes caps request bodies; config payloads with a long prompt fit well below it.
const maxBodyBytes = 1 << 20

// BindStrictJSON decodes the request body into dst, rejecting unknown fields,
// trailing data and oversized bodies with a Validation error.
func BindStrictJSON(c *gin.Context, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return apperr.Validation("unreadable request body")
	}
	if len(body) > maxBodyBytes {
		return apperr.Validation("request body too large")
	}
	return DecodeStrict(body, dst)
}

// DecodeStrict decodes exactly one JSON value from data into dst.
func DecodeStrict(data []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed payload", err).WithDetails(err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("malformed payload").WithDetails("unexpected data after JSON value")
	}
	return nil
}
