package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
	"github.com/kwansinnn/cytosight-all-detect/pkg/utils"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadSize = 25 << 20
)

// base carries what every handler needs to dispatch and respond
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errs       *pkgerrors.ErrorHandler
}

// sessionFrom returns the request session, or nil for anonymous requests
func sessionFrom(r *http.Request) *auth.Session {
	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		return nil
	}
	return s
}

// decodeJSON reads a JSON body into dst and validates its tags
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return pkgerrors.NewValidationError("request body is required")
		}
		return pkgerrors.NewValidationError("invalid request body").WithCause(err)
	}
	return utils.ValidateStruct(dst)
}

func send[R any](h base, r *http.Request, cmd bus.Command) (R, error) {
	var zero R
	out, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		return zero, err
	}
	res, ok := out.(R)
	if !ok {
		return zero, pkgerrors.NewInternalError("unexpected command result")
	}
	return res, nil
}

func ask[R any](h base, r *http.Request, q querybus.Query) (R, error) {
	var zero R
	out, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		return zero, err
	}
	res, ok := out.(R)
	if !ok {
		return zero, pkgerrors.NewInternalError("unexpected query result")
	}
	return res, nil
}
