package metadata

import (
	"context"
	"strconv"

	"github.com/open-edge-platform/pkg-replicator/internal/utils/shell"
)

// CommandQuerier resolves records by invoking the configured local
// metadata tool as "<command...> <kind> <id> <revision>" and returning
// its stdout verbatim.
type CommandQuerier struct {
	Command []string
}

func (q *CommandQuerier) Query(ctx context.Context, kind Kind, id string, revision int) (string, error) {
	argv := make([]string, 0, len(q.Command)+3)
	argv = append(argv, q.Command...)
	argv = append(argv, string(kind), id, strconv.Itoa(revision))
	return shell.Output(ctx, argv...)
}
