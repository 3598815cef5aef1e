package inscription

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/akaitrade/ordinalindex/pkg/types"
)

// fallbackSlots is tried, in order, when the primary user-field slot 1000
// is absent.
var fallbackSlots = []int{0, 1, 2, 5, 10, 100, 999}

// Parse reads a transaction's user-field bag and attempts to decode an
// inscription from it. ok is false for every non-inscription case: absent
// field, wrong type, malformed JSON, or an unrecognized shape. Parse never
// returns an error — a bad payload is a value, not a failure, per the
// indexing pipeline's error-handling policy.
func Parse(tx types.Tx) (types.Inscription, bool) {
	raw, ok := selectUserField(tx)
	if !ok {
		return types.Inscription{}, false
	}

	fields, ok := parseRestricted(raw)
	if !ok {
		return types.Inscription{}, false
	}

	insc, ok := classify(fields)
	if !ok {
		return types.Inscription{}, false
	}
	insc.RawJSON = raw
	return insc, true
}

func selectUserField(tx types.Tx) (string, bool) {
	if f, ok := tx.UserFields[1000]; ok {
		if f.Kind != types.UserFieldString {
			return "", false
		}
		return f.Value, true
	}

	for _, slot := range fallbackSlots {
		f, ok := tx.UserFields[slot]
		if !ok || f.Kind != types.UserFieldString {
			continue
		}
		if strings.Contains(f.Value, "p") && strings.Contains(f.Value, "op") {
			return f.Value, true
		}
	}
	return "", false
}

// parseRestricted decodes raw as a single-level, string-to-string JSON
// object. Any nesting, array, or non-string value is rejected.
func parseRestricted(raw string) (map[string]string, bool) {
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, false
	}

	out := make(map[string]string, len(generic))
	for k, v := range generic {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}

func classify(f map[string]string) (types.Inscription, bool) {
	p, hasP := f["p"]
	op, hasOp := f["op"]
	if !hasP || !hasOp {
		return types.Inscription{}, false
	}
	opLower := strings.ToLower(op)

	switch opLower {
	case string(types.NameOpReg), string(types.NameOpUpd), string(types.NameOpTrf):
		return classifyNameOp(p, opLower, f)
	case "deploy":
		return classifyDeploy(p, f)
	case "mint":
		return classifyMint(p, f)
	default:
		// Unknown op: well-formed payload, but not an operation we index.
		return types.Inscription{}, false
	}
}

func classifyNameOp(p, op string, f map[string]string) (types.Inscription, bool) {
	if p != string(types.NamespaceCDNS) && p != string(types.NamespaceCNS) {
		return types.Inscription{}, false
	}
	name, ok := f["cns"]
	if !ok || !validName(name) {
		return types.Inscription{}, false
	}
	return types.Inscription{
		Kind: types.KindNameOp,
		NameOp: &types.NameOp{
			Namespace: types.Namespace(p),
			Op:        types.NameOpType(op),
			Name:      name,
			Relay:     f["relay"],
		},
	}, true
}

func classifyDeploy(p string, f map[string]string) (types.Inscription, bool) {
	tick, ok := f["tick"]
	if !ok || tick == "" {
		return types.Inscription{}, false
	}
	max, ok := parsePositiveInt(f["max"])
	if !ok {
		return types.Inscription{}, false
	}
	lim, ok := parsePositiveInt(f["lim"])
	if !ok {
		return types.Inscription{}, false
	}
	return types.Inscription{
		Kind: types.KindTokenDeploy,
		TokenDeploy: &types.TokenDeploy{
			Protocol: p,
			Ticker:   tick,
			Max:      max,
			Lim:      lim,
		},
	}, true
}

func classifyMint(p string, f map[string]string) (types.Inscription, bool) {
	tick, ok := f["tick"]
	if !ok || tick == "" {
		return types.Inscription{}, false
	}
	amt, ok := parsePositiveInt(f["amt"])
	if !ok {
		return types.Inscription{}, false
	}
	return types.Inscription{
		Kind: types.KindTokenMint,
		TokenMint: &types.TokenMint{
			Protocol: p,
			Ticker:   tick,
			Amt:      amt,
		},
	}, true
}

func parsePositiveInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// validName reports whether name is well-formed UTF-8, non-empty, and
// contains no ASCII space.
func validName(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	return !strings.ContainsRune(name, ' ')
}
