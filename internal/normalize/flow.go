package normalize

import (
	"fmt"
	"strings"
)

// FlowKind is the control-transfer class of an instruction as reported by the
// analyzer that decoded it.
type FlowKind int

const (
	Operation FlowKind = iota // everything that is not a call, jump or terminator
	Call
	Jump
	Terminal // return, halt, trap
)

var flowNames = [...]string{
	Operation: "OPERATION",
	Call:      "CALL",
	Jump:      "JUMP",
	Terminal:  "TERMINAL",
}

func (k FlowKind) String() string {
	if k < 0 || int(k) >= len(flowNames) {
		return fmt.Sprintf("FlowKind(%d)", int(k))
	}
	return flowNames[k]
}

// ParseFlowKind accepts the names produced by String, case-insensitively.
// An empty string is OPERATION.
func ParseFlowKind(s string) (FlowKind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Operation, nil
	}
	for k, name := range flowNames {
		if name == s {
			return FlowKind(k), nil
		}
	}
	return Operation, fmt.Errorf("unknown flow kind %q", s)
}

func (k FlowKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(flowNames) {
		return nil, fmt.Errorf("invalid flow kind %d", int(k))
	}
	return []byte(flowNames[k]), nil
}

func (k *FlowKind) UnmarshalText(b []byte) error {
	parsed, err := ParseFlowKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsTransfer reports whether the canonical form of k discards the operands in
// favour of the ADDRESS token.
func (k FlowKind) IsTransfer() bool {
	return k == Call || k == Jump
}
