package script

import "errors"

// ErrUnknownKind reports a requirement or effect with an unrecognized kind
// tag, e.g. after loading a corrupted project.
var ErrUnknownKind = errors.New("script: unknown requirement or effect kind")

// Pos is presentation metadata placing a node on a layout canvas. It has no
// effect on graph structure.
type Pos struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Dialogue is the payload of a dialogue node: a hashed section of the text
// buffer plus its canvas position.
type Dialogue struct {
	Section Section `json:"section"`
	Pos     Pos     `json:"pos"`
}

// NewDialogue builds a node payload.
func NewDialogue(section Section, pos Pos) Dialogue {
	return Dialogue{Section: section, Pos: pos}
}

// Choice is the payload of an edge: the choice text shown to the player, a
// requirement gating it, and an effect applied when it is taken.
type Choice struct {
	Section     Section     `json:"section"`
	Requirement Requirement `json:"requirement"`
	Effect      Effect      `json:"effect"`
}

// NewChoice builds an edge payload.
func NewChoice(section Section, req Requirement, eff Effect) Choice {
	return Choice{Section: section, Requirement: req, Effect: eff}
}

// ReqKind tags the variant of a Requirement.
type ReqKind uint8

const (
	// ReqNone gates nothing; the choice is always available.
	ReqNone ReqKind = iota
	// ReqGreater requires the value at Key to be greater than Val.
	ReqGreater
	// ReqLess requires the value at Key to be less than Val.
	ReqLess
	// ReqEqual requires the value at Key to equal Val.
	ReqEqual
	// ReqCmp requires the name at Key to equal Name.
	ReqCmp
)

// Requirement gates a choice on the state of the value or name tables. The
// kind tag selects which fields are meaningful: Key+Val for the numeric
// comparisons, Key+Name for ReqCmp.
type Requirement struct {
	Kind ReqKind `json:"kind"`
	Key  string  `json:"key,omitempty"`
	Val  uint32  `json:"val,omitempty"`
	Name string  `json:"name,omitempty"`
}

// Validate confirms the requirement's key exists in the table its kind reads
// from.
func (r Requirement) Validate(names NameTable, vals ValueTable) error {
	switch r.Kind {
	case ReqNone:
		return nil
	case ReqGreater, ReqLess, ReqEqual:
		if _, ok := vals[r.Key]; !ok {
			return ErrValueNotExists
		}
		return nil
	case ReqCmp:
		if _, ok := names[r.Key]; !ok {
			return ErrNameNotExists
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

// Met evaluates the requirement against the current tables. Unknown keys and
// unknown kinds evaluate to false; Validate catches both ahead of time.
func (r Requirement) Met(names NameTable, vals ValueTable) bool {
	switch r.Kind {
	case ReqNone:
		return true
	case ReqGreater:
		v, ok := vals[r.Key]
		return ok && v > r.Val
	case ReqLess:
		v, ok := vals[r.Key]
		return ok && v < r.Val
	case ReqEqual:
		v, ok := vals[r.Key]
		return ok && v == r.Val
	case ReqCmp:
		n, ok := names[r.Key]
		return ok && n == r.Name
	default:
		return false
	}
}

// UsesName reports whether the requirement reads the given name-table key.
func (r Requirement) UsesName(key string) bool {
	return r.Kind == ReqCmp && r.Key == key
}

// UsesValue reports whether the requirement reads the given value-table key.
func (r Requirement) UsesValue(key string) bool {
	switch r.Kind {
	case ReqGreater, ReqLess, ReqEqual:
		return r.Key == key
	}
	return false
}

// EffectKind tags the variant of an Effect.
type EffectKind uint8

const (
	// EffectNone changes nothing.
	EffectNone EffectKind = iota
	// EffectAdd adds Val to the value at Key, saturating at the maximum.
	EffectAdd
	// EffectSub subtracts Val from the value at Key, saturating at zero.
	EffectSub
	// EffectSet stores Val at Key.
	EffectSet
	// EffectAssign stores Name at Key in the name table.
	EffectAssign
)

// Effect mutates the value or name tables when a choice is taken. The kind
// tag selects which fields are meaningful, mirroring Requirement.
type Effect struct {
	Kind EffectKind `json:"kind"`
	Key  string     `json:"key,omitempty"`
	Val  uint32     `json:"val,omitempty"`
	Name string     `json:"name,omitempty"`
}

// Validate confirms the effect's key exists in the table its kind writes to.
func (e Effect) Validate(names NameTable, vals ValueTable) error {
	switch e.Kind {
	case EffectNone:
		return nil
	case EffectAdd, EffectSub, EffectSet:
		if _, ok := vals[e.Key]; !ok {
			return ErrValueNotExists
		}
		return nil
	case EffectAssign:
		if _, ok := names[e.Key]; !ok {
			return ErrNameNotExists
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

// Apply mutates the tables. ErrValueNotExists/ErrNameNotExists if the key is
// missing; effects never create table entries.
func (e Effect) Apply(names NameTable, vals ValueTable) error {
	switch e.Kind {
	case EffectNone:
		return nil
	case EffectAdd:
		v, ok := vals[e.Key]
		if !ok {
			return ErrValueNotExists
		}
		if sum := v + e.Val; sum >= v {
			vals[e.Key] = sum
		} else {
			vals[e.Key] = ^uint32(0)
		}
		return nil
	case EffectSub:
		v, ok := vals[e.Key]
		if !ok {
			return ErrValueNotExists
		}
		if e.Val > v {
			vals[e.Key] = 0
		} else {
			vals[e.Key] = v - e.Val
		}
		return nil
	case EffectSet:
		if _, ok := vals[e.Key]; !ok {
			return ErrValueNotExists
		}
		vals[e.Key] = e.Val
		return nil
	case EffectAssign:
		if _, ok := names[e.Key]; !ok {
			return ErrNameNotExists
		}
		names[e.Key] = e.Name
		return nil
	default:
		return ErrUnknownKind
	}
}

// UsesName reports whether the effect writes the given name-table key.
func (e Effect) UsesName(key string) bool {
	return e.Kind == EffectAssign && e.Key == key
}

// UsesValue reports whether the effect writes the given value-table key.
func (e Effect) UsesValue(key string) bool {
	switch e.Kind {
	case EffectAdd, EffectSub, EffectSet:
		return e.Key == key
	}
	return false
}
