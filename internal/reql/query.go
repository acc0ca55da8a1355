package reql

import (
	"encoding/json"
	"fmt"

	"r-cli/internal/proto"
)

// BuildQuery serializes a ReQL query envelope.
// START: [1, term, opts] where "db" opt string is auto-wrapped as DB term
// and global options (time_format, binary_format, group_format, durability,
// read_mode, array_limit, profile, noreply, use_outdated, ...) are passed
// through normalized like any other opt arg.
// CONTINUE: [2], STOP: [3], NOREPLY_WAIT: [4], SERVER_INFO: [5].
func BuildQuery(qt proto.QueryType, term Term, opts OptArgs) ([]byte, error) {
	switch qt {
	case proto.QueryContinue, proto.QueryStop, proto.QueryNoreplyWait, proto.QueryServerInfo:
		return json.Marshal([]interface{}{int(qt)})
	case proto.QueryStart:
		qOpts := opts.normalize()
		if name, ok := opts["db"].(string); ok {
			qOpts["db"] = DB(name)
		}
		return json.Marshal([]interface{}{int(qt), term, qOpts})
	default:
		return nil, fmt.Errorf("reql: unsupported query type %d", qt)
	}
}
