package domain

// CommandID tags a discrete voice command.
type CommandID string

const (
	CommandStartInspection   CommandID = "start_inspection"
	CommandFinishInspection  CommandID = "finish_inspection"
	CommandQueenSeen         CommandID = "queen_seen"
	CommandQueenNotSeen      CommandID = "queen_not_seen"
	CommandEggsPresent       CommandID = "eggs_present"
	CommandEggsNotPresent    CommandID = "eggs_not_present"
	CommandBroodGood         CommandID = "brood_good"
	CommandBroodBad          CommandID = "brood_bad"
	CommandQueenCellsPresent CommandID = "queen_cells_present"
	CommandQueenCellsAbsent  CommandID = "queen_cells_absent"
	CommandVarroaLow         CommandID = "varroa_low"
	CommandVarroaMedium      CommandID = "varroa_medium"
	CommandVarroaHigh        CommandID = "varroa_high"
	CommandAddPhoto          CommandID = "add_photo"
	CommandNextFrame         CommandID = "next_frame"
	CommandSave              CommandID = "save"
	CommandCancel            CommandID = "cancel"
)

// KnownCommands lists every command the application understands.
var KnownCommands = []CommandID{
	CommandStartInspection,
	CommandFinishInspection,
	CommandQueenSeen,
	CommandQueenNotSeen,
	CommandEggsPresent,
	CommandEggsNotPresent,
	CommandBroodGood,
	CommandBroodBad,
	CommandQueenCellsPresent,
	CommandQueenCellsAbsent,
	CommandVarroaLow,
	CommandVarroaMedium,
	CommandVarroaHigh,
	CommandAddPhoto,
	CommandNextFrame,
	CommandSave,
	CommandCancel,
}

// IsKnownCommand reports whether id is one of KnownCommands.
func IsKnownCommand(id CommandID) bool {
	for _, known := range KnownCommands {
		if known == id {
			return true
		}
	}
	return false
}

// ParsedCommandLog is the ordered, append-only list of commands recognized
// during one inspection.
type ParsedCommandLog []CommandID

// Append returns the log with id added at the end.
func (l ParsedCommandLog) Append(id CommandID) ParsedCommandLog {
	return append(l, id)
}
