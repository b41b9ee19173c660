package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

// decodeJSON reads a capped JSON body into dst and validates it. The
// returned details list the failing fields, if any.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) ([]ValidationError, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, fmt.Errorf("%w: body larger than %d bytes", domain.ErrInvalidArgument, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidArgument)
		default:
			return nil, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err)
		}
	}
	if err := getValidator().Struct(dst); err != nil {
		var verrs []ValidationError
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				verrs = append(verrs, ValidationError{Field: fieldPath(fe.Namespace()), Code: fe.Tag()})
			}
		}
		return verrs, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument)
	}
	return nil, nil
}

// fieldPath drops the root struct name and lower-cases the first letter of
// each segment: "req.Careers[0].Title" becomes "careers[0].title".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
