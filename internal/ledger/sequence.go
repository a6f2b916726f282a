package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

// sequences hands out per-kind running numbers. Counters never go backwards.
type sequences map[entity.Kind]int

func (s sequences) peek(kind entity.Kind) string {
	return FormatID(kind, s[kind]+1)
}

func (s sequences) advance(kind entity.Kind) {
	s[kind]++
}

// observe raises the counter for kind to at least n.
func (s sequences) observe(kind entity.Kind, n int) {
	if n > s[kind] {
		s[kind] = n
	}
}

// FormatID renders the n-th id of a kind, e.g. FormatID(KindInvoice, 7) == "INV007".
func FormatID(kind entity.Kind, n int) string {
	return fmt.Sprintf("%s%03d", kind.IDPrefix(), n)
}

// ParseID splits an id into its kind and running number.
// Only canonical ids are accepted: ParseID(id) succeeds iff FormatID gives back id.
func ParseID(id string) (entity.Kind, int, bool) {
	for _, kind := range entity.Kinds {
		prefix := kind.IDPrefix()
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil || n <= 0 || FormatID(kind, n) != id {
			return "", 0, false
		}
		return kind, n, true
	}
	return "", 0, false
}
