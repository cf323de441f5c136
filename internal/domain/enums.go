package domain

func (m AssigneeMode) IsValid() bool {
	switch m {
	case AssigneeModeDisabled, AssigneeModeManual,
		AssigneeModeGroupDefault, AssigneeModeGroupCustom:
		return true
	default:
		return false
	}
}

func (t SubmissionType) IsValid() bool {
	switch t {
	case SubmissionTypeNoSubmit, SubmissionTypeOnline, SubmissionTypeExternal:
		return true
	default:
		return false
	}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusNotSubmitted, StatusOnChecking, StatusNeedFixes, StatusCompleted:
		return true
	default:
		return false
	}
}
