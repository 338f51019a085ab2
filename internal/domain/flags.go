package domain

import "fmt"

// VarroaLevel is the observed mite load. The zero value is VarroaNone, which
// also stands for "not mentioned" in a patch.
type VarroaLevel int

const (
	VarroaNone VarroaLevel = iota
	VarroaLow
	VarroaMedium
	VarroaHigh
)

var varroaNames = [...]string{"None", "Low", "Medium", "High"}

func (l VarroaLevel) String() string {
	if l < VarroaNone || l > VarroaHigh {
		return fmt.Sprintf("VarroaLevel(%d)", int(l))
	}
	return varroaNames[l]
}

// ParseVarroaLevel accepts the display names (case-sensitive) used in storage and exports.
func ParseVarroaLevel(name string) (VarroaLevel, error) {
	for i, candidate := range varroaNames {
		if candidate == name {
			return VarroaLevel(i), nil
		}
	}
	return VarroaNone, fmt.Errorf("unknown varroa level %q", name)
}

func (l VarroaLevel) MarshalText() ([]byte, error) {
	if l < VarroaNone || l > VarroaHigh {
		return nil, fmt.Errorf("invalid varroa level %d", int(l))
	}
	return []byte(varroaNames[l]), nil
}

func (l *VarroaLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseVarroaLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// FlagField names one tri-state inspection flag.
type FlagField string

const (
	FlagQueenSeen        FlagField = "queen_seen"
	FlagEggsPresent      FlagField = "eggs_present"
	FlagBroodPatternGood FlagField = "brood_pattern_good"
	FlagQueenCells       FlagField = "queen_cells"
)

// FlagFields lists the tri-state fields in display order.
var FlagFields = []FlagField{FlagQueenSeen, FlagEggsPresent, FlagBroodPatternGood, FlagQueenCells}

// InspectionFlags is both the session's accumulated flag state and the sparse
// patch produced by transcript extraction. A nil boolean means "not mentioned".
type InspectionFlags struct {
	QueenSeen        *bool       `json:"queenSeen"`
	EggsPresent      *bool       `json:"eggsPresent"`
	BroodPatternGood *bool       `json:"broodPatternGood"`
	QueenCells       *bool       `json:"queenCells"`
	VarroaLevel      VarroaLevel `json:"varroaLevel"`
}

// Bool returns a pointer to a copy of v.
func Bool(v bool) *bool {
	return &v
}

// Get returns the pointer held for field, or nil for an unknown field.
func (f InspectionFlags) Get(field FlagField) *bool {
	switch field {
	case FlagQueenSeen:
		return f.QueenSeen
	case FlagEggsPresent:
		return f.EggsPresent
	case FlagBroodPatternGood:
		return f.BroodPatternGood
	case FlagQueenCells:
		return f.QueenCells
	default:
		return nil
	}
}

// Set stores a copy of value (nil clears the field). Unknown fields are ignored.
func (f *InspectionFlags) Set(field FlagField, value *bool) {
	if value != nil {
		value = Bool(*value)
	}
	switch field {
	case FlagQueenSeen:
		f.QueenSeen = value
	case FlagEggsPresent:
		f.EggsPresent = value
	case FlagBroodPatternGood:
		f.BroodPatternGood = value
	case FlagQueenCells:
		f.QueenCells = value
	}
}

// IsEmpty reports whether nothing was detected.
func (f InspectionFlags) IsEmpty() bool {
	for _, field := range FlagFields {
		if f.Get(field) != nil {
			return false
		}
	}
	return f.VarroaLevel == VarroaNone
}

// Clone returns a copy that shares no pointers with f.
func (f InspectionFlags) Clone() InspectionFlags {
	out := InspectionFlags{VarroaLevel: f.VarroaLevel}
	for _, field := range FlagFields {
		out.Set(field, f.Get(field))
	}
	return out
}

// Valid reports whether l is one of the four levels.
func (l VarroaLevel) Valid() bool {
	return l >= VarroaNone && l <= VarroaHigh
}

// IsFlagField reports whether field names a tri-state flag.
func IsFlagField(field FlagField) bool {
	for _, known := range FlagFields {
		if known == field {
			return true
		}
	}
	return false
}
