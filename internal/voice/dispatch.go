package voice

import "beespeak/internal/domain"

// commandEffects holds the single-field patch each flag-setting command applies.
var commandEffects = map[domain.CommandID]domain.InspectionFlags{
	domain.CommandQueenSeen:         {QueenSeen: domain.Bool(true)},
	domain.CommandQueenNotSeen:      {QueenSeen: domain.Bool(false)},
	domain.CommandEggsPresent:       {EggsPresent: domain.Bool(true)},
	domain.CommandEggsNotPresent:    {EggsPresent: domain.Bool(false)},
	domain.CommandBroodGood:         {BroodPatternGood: domain.Bool(true)},
	domain.CommandBroodBad:          {BroodPatternGood: domain.Bool(false)},
	domain.CommandQueenCellsPresent: {QueenCells: domain.Bool(true)},
	domain.CommandQueenCellsAbsent:  {QueenCells: domain.Bool(false)},
	domain.CommandVarroaLow:         {VarroaLevel: domain.VarroaLow},
	domain.CommandVarroaMedium:      {VarroaLevel: domain.VarroaMedium},
	domain.CommandVarroaHigh:        {VarroaLevel: domain.VarroaHigh},
}

// ApplyCommand applies a flag-setting command to the session flags. Lifecycle
// commands return the flags unchanged; the session controller handles them.
func ApplyCommand(session domain.InspectionFlags, command domain.CommandID) domain.InspectionFlags {
	patch, ok := commandEffects[command]
	if !ok {
		return session.Clone()
	}
	return ApplyFlags(session, patch)
}

// IsFlagCommand reports whether command sets an inspection flag.
func IsFlagCommand(command domain.CommandID) bool {
	_, ok := commandEffects[command]
	return ok
}

// IsLifecycleCommand reports whether command is a known command that does not set a flag.
func IsLifecycleCommand(command domain.CommandID) bool {
	return domain.IsKnownCommand(command) && !IsFlagCommand(command)
}
