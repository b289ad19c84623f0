package telemetry

// Event names.
const (
	EventSessionStart     = "session_start"
	EventTaskCompleted    = "task_completed"
	EventReportGenerated  = "report_generated"
	EventReportFailed     = "report_failed"
	EventReportRendered   = "report_rendered"
	EventReportMarkedDone = "report_marked_done"
	EventFileUploaded     = "file_uploaded"
	EventChatStarted      = "chat_started"
	EventQuizFinished     = "quiz_finished"
	EventCommandError     = "command_error"
)
