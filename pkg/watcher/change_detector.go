package watcher

// ChangeAnalysis describes what a change requires before the next run.
type ChangeAnalysis struct {
	NeedConfigReload bool
	NeedRerun        bool
	ChangedFiles     []string
}

// AnalyzeChanges decides how to react to a debounced change event.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeConfig:
		// Any key may have changed, including the input path.
		analysis.NeedConfigReload = true
		analysis.NeedRerun = true

	case ChangeTypeInput:
		analysis.NeedRerun = true
	}

	return analysis
}
