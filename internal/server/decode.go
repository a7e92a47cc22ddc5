package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

const maxBodyBytes = 10 << 20

// readBody reads the request body and, when v is not nil, checks it against schema.
func readBody(w http.ResponseWriter, r *http.Request, v *validation.RequestValidator, schema string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrInvalid, err)
	}
	if v != nil {
		if err := v.Validate(schema, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// decodeBody reads, validates and decodes the request body into out.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validation.RequestValidator, schema string, out any) error {
	body, err := readBody(w, r, v, schema)
	if err != nil {
		return err
	}
	return unmarshal(body, out)
}

func unmarshal(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalid, err)
	}
	return nil
}

// principalFrom returns the principal bound by the authentication middleware.
func principalFrom(r *http.Request) (iam.Principal, error) {
	p, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		return iam.Principal{}, iam.ErrUnauthenticated
	}
	return p, nil
}
