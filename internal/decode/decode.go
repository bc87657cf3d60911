package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
)

// NoDataText is shown when a successful response carries no body.
const NoDataText = "No data"

var errNullDocument = errors.New("null document")

// Decode turns a raw response into T. Status is checked before the body, and
// an absent body is reported separately from a malformed one.
func Decode[T any](resp fetch.Response) (T, error) {
	var out T
	if !resp.Success() {
		return out, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	body := bytes.TrimSpace(resp.Body)
	if !resp.HasBody || len(body) == 0 {
		return out, &EmptyBodyError{}
	}
	if bytes.Equal(body, []byte("null")) {
		return out, &DecodeError{Target: typeName(out), Err: errNullDocument}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodeError{Target: typeName(out), Err: err}
	}
	return out, nil
}

// StatusText renders the display string for a status/emptiness outcome, or
// "" when the error is some other kind.
func StatusText(err error) string {
	if se, ok := AsHTTPStatusError(err); ok {
		return se.Error()
	}
	if Classify(err) == KindEmptyBody {
		return NoDataText
	}
	return ""
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
