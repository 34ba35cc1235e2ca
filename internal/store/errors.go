package store

import "github.com/videticket/videticket/internal/verr"

func notFoundErr(ref string) error {
	return verr.New(verr.NotFound, ref)
}
