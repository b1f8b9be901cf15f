package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/blackoreo/namwatch/types"
)

const AddressKey attribute.Key = "validator.address"
const ProposalKey attribute.Key = "proposal.id"

func Address(addr types.Address) attribute.KeyValue {
	return AddressKey.String(addr.String())
}

func ProposalID(id uint64) attribute.KeyValue {
	return ProposalKey.Int64(int64(id)) /* #nosec G115 proposal ids stay far below int64 max */
}

/*
ErrStatus returns attribute named "status" with value "ok" if the param
err is nil and "err" when it is not.
*/
func ErrStatus(err error) attribute.KeyValue {
	status := "ok"
	if err != nil {
		status = "err"
	}
	return attribute.String("status", status)
}
