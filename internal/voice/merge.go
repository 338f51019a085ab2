package voice

import "beespeak/internal/domain"

// ApplyFlags merges a sparse patch into the current session flags. Only fields
// the patch sets are overwritten; a VarroaNone patch leaves the level alone.
func ApplyFlags(current, patch domain.InspectionFlags) domain.InspectionFlags {
	out := current.Clone()
	for _, field := range domain.FlagFields {
		if value := patch.Get(field); value != nil {
			out.Set(field, value)
		}
	}
	if patch.VarroaLevel != domain.VarroaNone {
		out.VarroaLevel = patch.VarroaLevel
	}
	return out
}
