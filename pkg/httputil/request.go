package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxJSONBodyBytes bounds the request bodies ParseJSON reads
const MaxJSONBodyBytes = 1 << 20

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("invalid JSON: empty body")
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
