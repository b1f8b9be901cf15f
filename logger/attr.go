package logger

import (
	"log/slog"

	"github.com/blackoreo/namwatch/types"
)

/*
Log attribute key values. Generally shouldn't be used directly, use the
appropriate "attribute constructor function" instead.
*/
const (
	ErrorKey    = "err"
	ModuleKey   = "module"
	AddressKey  = "address"
	ProposalKey = "proposal_id"
	NodeURLKey  = "node_url"
)

/*
Error adds error to the log

	if err := f(); err != nil {
		log.Error("calling f", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

/*
Address adds the validator address field.

Use with logger.With() to create a sub-logger for one watched address
rather than repeating the attribute on individual calls.
*/
func Address(addr types.Address) slog.Attr {
	return slog.String(AddressKey, addr.String())
}

// ProposalID adds the governance proposal id field.
func ProposalID(id uint64) slog.Attr {
	return slog.Uint64(ProposalKey, id)
}

// NodeURL adds the queried node's URL field.
func NodeURL(url string) slog.Attr {
	return slog.String(NodeURLKey, url)
}
