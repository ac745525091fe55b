package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

const maxBodyBytes = 64 << 10

// decodePayload reads a form or JSON body into out. Keys match the
// mapstructure tags case-insensitively, so Twilio's From/Body and a JSON
// from/body land in the same fields. Scalars are converted to strings.
func decodePayload(r *http.Request, out any) error {
	raw := make(map[string]any)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("failed to parse form: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				raw[k] = v[0]
			}
		}
	default:
		err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode json: %w", err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
