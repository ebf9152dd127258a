// Package callback encodes and decodes inline-button payloads. Payloads are
// tagged tokens (verb_id or verb_id_sub) with a closed verb set, so routing
// never depends on positional splitting of raw strings.
package callback

import (
	"fmt"
	"strings"
)

type Verb string

const (
	RegisterRole   Verb = "registerRole"
	SelectCompany  Verb = "selectCompany"
	AddMenuItemFor Verb = "addMenuItemFor"
	CreateOrderFor Verb = "createOrderFor"
	JoinOrder      Verb = "joinOrder"
	ViewDetails    Verb = "viewDetails"
	TogglePaid     Verb = "togglePaid"
	SetStatus      Verb = "setStatus"
)

// arity records how many arguments each verb carries.
var arity = map[Verb]int{
	RegisterRole:   1,
	SelectCompany:  1,
	AddMenuItemFor: 1,
	CreateOrderFor: 1,
	JoinOrder:      1,
	ViewDetails:    1,
	TogglePaid:     2,
	SetStatus:      2,
}

type Command struct {
	Verb Verb
	ID   string
	Sub  string
}

// Encode builds a payload token. Args must match the verb's arity; the last
// argument may itself contain underscores (group ids do not, but status names
// and numeric ids are safe either way because Parse splits from the left).
func Encode(v Verb, args ...string) string {
	return string(v) + "_" + strings.Join(args, "_")
}

func Parse(data string) (Command, error) {
	verb, rest, ok := strings.Cut(data, "_")
	if !ok {
		return Command{}, fmt.Errorf("malformed callback %q", data)
	}
	n, known := arity[Verb(verb)]
	if !known {
		return Command{}, fmt.Errorf("unknown callback verb %q", verb)
	}
	cmd := Command{Verb: Verb(verb)}
	switch n {
	case 1:
		if rest == "" {
			return Command{}, fmt.Errorf("callback %q: missing argument", data)
		}
		cmd.ID = rest
	case 2:
		id, sub, ok := strings.Cut(rest, "_")
		if !ok || id == "" || sub == "" {
			return Command{}, fmt.Errorf("callback %q: want 2 arguments", data)
		}
		cmd.ID, cmd.Sub = id, sub
	}
	return cmd, nil
}
